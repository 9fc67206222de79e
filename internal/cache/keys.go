package cache

// UsersAllKey holds the full user listing.
const UsersAllKey = "users:all"

func UserKey(id string) string { return "user:" + id }

// ProjectsKey holds the projects a user owns or is a member of.
func ProjectsKey(userID string) string { return "projects:" + userID }

// TasksKey holds the task list of a project.
func TasksKey(projectID string) string { return "tasks:" + projectID }
