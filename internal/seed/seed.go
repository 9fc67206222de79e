// Package seed loads YAML fixtures into the store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/services"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is the document read by pmctl seed. Projects refer to users by
// email and tasks refer to projects by name.
type Fixture struct {
	Users    []User    `yaml:"users"`
	Projects []Project `yaml:"projects"`
	Tasks    []Task    `yaml:"tasks"`
}

type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Project struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Status      string   `yaml:"status"`
	Owner       string   `yaml:"owner"`
	Members     []string `yaml:"members"`
}

type Task struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Status      string `yaml:"status"`
	Project     string `yaml:"project"`
	Assignee    string `yaml:"assignee"`
}

// Result counts what Apply created and skipped.
type Result struct {
	UsersCreated    int
	ProjectsCreated int
	TasksCreated    int
	Skipped         int
}

// Load decodes a fixture, rejecting unknown fields.
func Load(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return &f, nil
}

// LoadFile reads a fixture from disk.
func LoadFile(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Load(file)
}

// Apply writes the fixture in a single transaction. Users that already exist
// (by email), projects that already exist (by name) and tasks whose title is
// already present in their project are skipped, so Apply can be rerun.
func Apply(ctx context.Context, store repository.Store, f *Fixture, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var res Result
	err := store.Transaction(ctx, func(tx repository.Store) error {
		res = Result{}
		for _, u := range f.Users {
			created, err := applyUser(ctx, tx, u)
			if err != nil {
				return err
			}
			if created {
				res.UsersCreated++
			} else {
				res.Skipped++
				logger.Info("user exists, skipping", zap.String("email", u.Email))
			}
		}
		for _, p := range f.Projects {
			created, err := applyProject(ctx, tx, p)
			if err != nil {
				return err
			}
			if created {
				res.ProjectsCreated++
			} else {
				res.Skipped++
				logger.Info("project exists, skipping", zap.String("name", p.Name))
			}
		}
		for _, t := range f.Tasks {
			created, err := applyTask(ctx, tx, t)
			if err != nil {
				return err
			}
			if created {
				res.TasksCreated++
			} else {
				res.Skipped++
				logger.Info("task exists, skipping", zap.String("title", t.Title), zap.String("project", t.Project))
			}
		}
		return completeProjects(ctx, tx, f.Tasks, logger)
	})
	return res, err
}

func applyUser(ctx context.Context, tx repository.Store, u User) (bool, error) {
	if _, err := tx.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(u.Email))); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	user, err := services.NewUser(services.CreateUserInput{
		Name:     u.Name,
		Email:    u.Email,
		Password: u.Password,
		Role:     u.Role,
	})
	if err != nil {
		return false, fmt.Errorf("user %q: %w", u.Email, err)
	}
	if err := tx.Users().Create(ctx, user); err != nil {
		return false, fmt.Errorf("user %q: %w", u.Email, err)
	}
	return true, nil
}

func applyProject(ctx context.Context, tx repository.Store, p Project) (bool, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return false, errors.New("project without a name")
	}
	if _, err := tx.Projects().FindByName(ctx, name); err == nil {
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	project := &models.Project{
		Name:        name,
		Description: p.Description,
		Status:      models.ProjectStatusPlanned,
	}
	if p.Status != "" {
		status, err := models.ParseProjectStatus(p.Status)
		if err != nil {
			return false, fmt.Errorf("project %q: %w", name, err)
		}
		project.Status = status
	}
	if p.Owner != "" {
		owner, err := findUser(ctx, tx, p.Owner)
		if err != nil {
			return false, fmt.Errorf("project %q owner: %w", name, err)
		}
		project.OwnerID = &owner.ID
	}
	for _, email := range p.Members {
		member, err := findUser(ctx, tx, email)
		if err != nil {
			return false, fmt.Errorf("project %q member: %w", name, err)
		}
		if project.HasMember(member.ID) {
			continue
		}
		project.Members = append(project.Members, *member)
	}

	if err := tx.Projects().Create(ctx, project); err != nil {
		return false, fmt.Errorf("project %q: %w", name, err)
	}
	return true, nil
}

func applyTask(ctx context.Context, tx repository.Store, t Task) (bool, error) {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return false, errors.New("task without a title")
	}
	name := strings.TrimSpace(t.Project)
	project, err := tx.Projects().FindByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("task %q project %q: %w", title, name, err)
	}

	existing, err := tx.Tasks().ListByProject(ctx, project.ID)
	if err != nil {
		return false, err
	}
	for _, e := range existing {
		if e.Title == title {
			return false, nil
		}
	}

	task := &models.Task{
		Title:       title,
		Description: t.Description,
		Status:      models.TaskStatusPending,
		ProjectID:   project.ID,
	}
	if t.Status != "" {
		status, err := models.ParseTaskStatus(t.Status)
		if err != nil {
			return false, fmt.Errorf("task %q: %w", title, err)
		}
		task.Status = status
	}
	if t.Assignee != "" {
		assignee, err := findUser(ctx, tx, t.Assignee)
		if err != nil {
			return false, fmt.Errorf("task %q assignee: %w", title, err)
		}
		task.AssigneeID = &assignee.ID
	}

	if task.Status == models.TaskStatusAwaitingReassignment {
		task.AssigneeID = nil
	}

	if err := tx.Tasks().Create(ctx, task); err != nil {
		return false, fmt.Errorf("task %q: %w", title, err)
	}
	return true, nil
}

// completeProjects applies auto-completion once every fixture task is in place.
func completeProjects(ctx context.Context, tx repository.Store, tasks []Task, logger *zap.Logger) error {
	seen := make(map[string]bool)
	for _, t := range tasks {
		name := strings.TrimSpace(t.Project)
		if seen[name] {
			continue
		}
		seen[name] = true

		project, err := tx.Projects().FindByName(ctx, name)
		if err != nil {
			return err
		}
		completed, err := services.RecomputeCompletion(ctx, tx, project.ID)
		if err != nil {
			return err
		}
		if completed {
			logger.Info("project completed", zap.String("name", project.Name))
		}
	}
	return nil
}

func findUser(ctx context.Context, tx repository.Store, email string) (*models.User, error) {
	user, err := tx.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", email, err)
	}
	return user, nil
}
