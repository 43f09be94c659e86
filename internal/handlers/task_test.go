package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/repositories"
)

func createTask(t *testing.T, r *gin.Engine, token string, projectID uint, body gin.H) handlers.TaskResponse {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), token, body)

	if w.Code != http.StatusCreated {
		t.Fatalf("create task: status %d body %s", w.Code, w.Body.String())
	}

	var task handlers.TaskResponse
	decodeBody(t, w, &task)

	return task
}

func fetchTask(t *testing.T, r *gin.Engine, token string, projectID, taskID uint) handlers.TaskResponse {
	t.Helper()

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks/%d", projectID, taskID), token, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("fetch task: status %d body %s", w.Code, w.Body.String())
	}

	var task handlers.TaskResponse
	decodeBody(t, w, &task)

	return task
}

func TestCreateTaskDefaults(t *testing.T) {
	r := setupEnv(t)

	creator, token := newUser(t, "Alice", "alice@example.com")
	projectID := newProject(t, r, token, "Board")

	task := createTask(t, r, token, projectID, gin.H{"title": "Write docs"})

	if task.Status != "todo" {
		t.Errorf("status = %q, want todo", task.Status)
	}

	if task.AssigneeID == nil || *task.AssigneeID != creator.ID {
		t.Errorf("assignee should default to the creator, got %v", task.AssigneeID)
	}

	if task.Assignee == nil || task.Assignee.Email != creator.Email {
		t.Errorf("assignee summary should be embedded, got %+v", task.Assignee)
	}

	if task.ProjectID != projectID {
		t.Errorf("project id = %d, want %d", task.ProjectID, projectID)
	}
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	r := setupEnv(t)

	_, token := newUser(t, "Alice", "alice@example.com")
	projectID := newProject(t, r, token, "Board")

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), token, gin.H{"description": "no title"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("missing title: status %d, want 400", w.Code)
	}
}

func TestCreateTaskInvalidAssignee(t *testing.T) {
	r := setupEnv(t)

	_, ownerToken := newUser(t, "Alice", "alice@example.com")
	outsider, _ := newUser(t, "Eve", "eve@example.com")

	projectID := newProject(t, r, ownerToken, "Board")

	w := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/projects/%d/tasks", projectID), ownerToken, gin.H{
		"title":       "Sneaky",
		"assignee_id": outsider.ID,
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid assignee: status %d, want 400", w.Code)
	}

	// Nothing persisted
	count, err := repositories.NewTaskRepository().CountByProject(projectID)
	if err != nil {
		t.Fatalf("CountByProject: %v", err)
	}
	if count != 0 {
		t.Errorf("rejected create persisted %d rows", count)
	}
}

func TestCreateTaskAssigneeMayBeMember(t *testing.T) {
	r := setupEnv(t)

	_, ownerToken := newUser(t, "Alice", "alice@example.com")
	member, _ := newUser(t, "Bob", "bob@example.com")

	projectID := newProject(t, r, ownerToken, "Board")
	inviteUser(t, r, ownerToken, projectID, member.Email)

	task := createTask(t, r, ownerToken, projectID, gin.H{
		"title":       "For Bob",
		"assignee_id": member.ID,
	})

	if task.AssigneeID == nil || *task.AssigneeID != member.ID {
		t.Errorf("assignee = %v, want %d", task.AssigneeID, member.ID)
	}
}

// Spec scenario: PATCH status todo -> done with no other fields leaves title
// and description untouched, and the pushed record matches a subsequent GET.
func TestUpdateTaskStatusOnly(t *testing.T) {
	r := setupEnv(t)

	_, token := newUser(t, "Alice", "alice@example.com")
	projectID := newProject(t, r, token, "Board")

	created := createTask(t, r, token, projectID, gin.H{
		"title":       "Finish report",
		"description": "quarterly numbers",
	})

	w := doRequest(t, r, http.MethodPatch, fmt.Sprintf("/api/projects/%d/tasks/%d", projectID, created.ID), token, gin.H{
		"status": "done",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("patch: status %d body %s", w.Code, w.Body.String())
	}

	var updated handlers.TaskResponse
	decodeBody(t, w, &updated)

	if updated.Status != "done" {
		t.Errorf("status = %q, want done", updated.Status)
	}

	if updated.Title != "Finish report" || updated.Description != "quarterly numbers" {
		t.Errorf("patch changed unrelated fields: %+v", updated)
	}

	// Pull view must match the pushed record
	fetched := fetchTask(t, r, token, projectID, created.ID)

	if fetched.Status != updated.Status || fetched.Title != updated.Title || fetched.Description != updated.Description {
		t.Errorf("push and pull views diverge: push %+v pull %+v", updated, fetched)
	}
}

func TestUpdateTaskEmptyStringsAreNoChange(t *testing.T) {
	r := setupEnv(t)

	_, token := newUser(t, "Alice", "alice@example.com")
	projectID := newProject(t, r, token, "Board")

	created := createTask(t, r, token, projectID, gin.H{
		"title":       "Keep me",
		"description": "and me",
	})

	w := doRequest(t, r, http.MethodPatch, fmt.Sprintf("/api/projects/%d/tasks/%d", projectID, created.ID), token, gin.H{
		"title":       "",
		"description": "",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("patch: status %d body %s", w.Code, w.Body.String())
	}

	fetched := fetchTask(t, r, token, projectID, created.ID)

	if fetched.Title != "Keep me" || fetched.Description != "and me" {
		t.Errorf("empty strings should not clear fields: %+v", fetched)
	}
}

func TestUpdateTaskInvalidStatus(t *testing.T) {
	r := setupEnv(t)

	_, token := newUser(t, "Alice", "alice@example.com")
	projectID := newProject(t, r, token, "Board")

	created := createTask(t, r, token, projectID, gin.H{"title": "Task"})

	w := doRequest(t, r, http.MethodPatch, fmt.Sprintf("/api/projects/%d/tasks/%d", projectID, created.ID), token, gin.H{
		"status": "blocked",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid status: status %d, want 400", w.Code)
	}
}

func TestUpdateTaskAssigneeSemantics(t *testing.T) {
	r := setupEnv(t)

	owner, ownerToken := newUser(t, "Alice", "alice@example.com")
	member, _ := newUser(t, "Bob", "bob@example.com")
	outsider, _ := newUser(t, "Eve", "eve@example.com")

	projectID := newProject(t, r, ownerToken, "Board")
	inviteUser(t, r, ownerToken, projectID, member.Email)

	created := createTask(t, r, ownerToken, projectID, gin.H{"title": "Handoff"})
	taskPath := fmt.Sprintf("/api/projects/%d/tasks/%d", projectID, created.ID)

	// Reassign to a member
	w := doRequest(t, r, http.MethodPatch, taskPath, ownerToken, gin.H{"assignee_id": member.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("reassign: status %d body %s", w.Code, w.Body.String())
	}

	var updated handlers.TaskResponse
	decodeBody(t, w, &updated)
	if updated.AssigneeID == nil || *updated.AssigneeID != member.ID {
		t.Errorf("assignee = %v, want %d", updated.AssigneeID, member.ID)
	}

	// Non-member assignee is rejected
	w = doRequest(t, r, http.MethodPatch, taskPath, ownerToken, gin.H{"assignee_id": outsider.ID})
	if w.Code != http.StatusBadRequest {
		t.Errorf("outsider assignee: status %d, want 400", w.Code)
	}

	// Explicit null clears the assignment
	w = doRequest(t, r, http.MethodPatch, taskPath, ownerToken, gin.H{"assignee_id": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("clear assignee: status %d body %s", w.Code, w.Body.String())
	}

	decodeBody(t, w, &updated)
	if updated.AssigneeID != nil {
		t.Errorf("assignee should be cleared, got %v", *updated.AssigneeID)
	}

	// Absent key leaves the assignment alone
	w = doRequest(t, r, http.MethodPatch, taskPath, ownerToken, gin.H{"assignee_id": owner.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("reassign to owner: status %d", w.Code)
	}

	w = doRequest(t, r, http.MethodPatch, taskPath, ownerToken, gin.H{"title": "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename: status %d", w.Code)
	}

	decodeBody(t, w, &updated)
	if updated.AssigneeID == nil || *updated.AssigneeID != owner.ID {
		t.Errorf("absent assignee_id key must not clear the assignment, got %v", updated.AssigneeID)
	}
}

func TestUpdateAndDeleteMissingTask(t *testing.T) {
	r := setupEnv(t)

	_, token := newUser(t, "Alice", "alice@example.com")
	projectID := newProject(t, r, token, "Board")

	missingPath := fmt.Sprintf("/api/projects/%d/tasks/9999", projectID)

	if w := doRequest(t, r, http.MethodPatch, missingPath, token, gin.H{"status": "done"}); w.Code != http.StatusNotFound {
		t.Errorf("patch missing: status %d, want 404", w.Code)
	}

	if w := doRequest(t, r, http.MethodDelete, missingPath, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("delete missing: status %d, want 404", w.Code)
	}

	if w := doRequest(t, r, http.MethodGet, missingPath, token, nil); w.Code != http.StatusNotFound {
		t.Errorf("get missing: status %d, want 404", w.Code)
	}
}

func TestTaskNotReachableAcrossProjects(t *testing.T) {
	r := setupEnv(t)

	_, aliceToken := newUser(t, "Alice", "alice@example.com")
	_, bobToken := newUser(t, "Bob", "bob@example.com")

	aliceProject := newProject(t, r, aliceToken, "Alice Board")
	bobProject := newProject(t, r, bobToken, "Bob Board")

	task := createTask(t, r, aliceToken, aliceProject, gin.H{"title": "Private"})

	// Bob cannot mutate Alice's task through his own project id
	crossPath := fmt.Sprintf("/api/projects/%d/tasks/%d", bobProject, task.ID)

	if w := doRequest(t, r, http.MethodPatch, crossPath, bobToken, gin.H{"status": "done"}); w.Code != http.StatusNotFound {
		t.Errorf("cross-project patch: status %d, want 404", w.Code)
	}

	if w := doRequest(t, r, http.MethodDelete, crossPath, bobToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("cross-project delete: status %d, want 404", w.Code)
	}

	// The task is untouched
	fetched := fetchTask(t, r, aliceToken, aliceProject, task.ID)
	if fetched.Status != "todo" {
		t.Errorf("task status changed to %q", fetched.Status)
	}
}

func TestDeleteTask(t *testing.T) {
	r := setupEnv(t)

	_, ownerToken := newUser(t, "Alice", "alice@example.com")
	member, memberToken := newUser(t, "Bob", "bob@example.com")

	projectID := newProject(t, r, ownerToken, "Board")
	inviteUser(t, r, ownerToken, projectID, member.Email)

	task := createTask(t, r, ownerToken, projectID, gin.H{"title": "Ephemeral"})

	// Any member may delete
	w := doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/projects/%d/tasks/%d", projectID, task.ID), memberToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d body %s", w.Code, w.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
	}
	decodeBody(t, w, &response)

	if !response.Success {
		t.Error("delete should acknowledge with success=true")
	}

	count, err := repositories.NewTaskRepository().CountByProject(projectID)
	if err != nil {
		t.Fatalf("CountByProject: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 tasks after delete, got %d", count)
	}
}

func TestListTasksOrdersByCreation(t *testing.T) {
	r := setupEnv(t)

	_, token := newUser(t, "Alice", "alice@example.com")
	projectID := newProject(t, r, token, "Board")

	titles := []string{"one", "two", "three"}
	for _, title := range titles {
		createTask(t, r, token, projectID, gin.H{"title": title})
	}

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/projects/%d/tasks", projectID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", w.Code, w.Body.String())
	}

	var tasks []handlers.TaskResponse
	decodeBody(t, w, &tasks)

	if len(tasks) != len(titles) {
		t.Fatalf("expected %d tasks, got %d", len(titles), len(tasks))
	}

	for i, title := range titles {
		if tasks[i].Title != title {
			t.Errorf("task %d: got %q, want %q", i, tasks[i].Title, title)
		}
	}
}
