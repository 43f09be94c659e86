// Package authz holds the project authorization predicates. Both functions
// are pure: they expect a project loaded with its Members and never touch the
// database themselves.
package authz

import "github.com/taskboard-dev/taskboard/internal/models"

// CanAccess reports whether the user is the project's owner or a member.
// Grants task read/write and project read access.
func CanAccess(userID uint, project models.Project) bool {
	if project.OwnerID == userID {
		return true
	}

	for _, member := range project.Members {
		if member.UserID == userID {
			return true
		}
	}

	return false
}

// CanManage reports whether the user may perform settings operations
// (invite members, delete the project). Owner only.
func CanManage(userID uint, project models.Project) bool {
	return project.OwnerID == userID
}

// ValidAssignee reports whether userID may be assigned tasks in the project,
// i.e. is the owner or a current member. Checked at write time only; removing
// a member later does not clear existing assignments.
func ValidAssignee(userID uint, project models.Project) bool {
	return CanAccess(userID, project)
}
