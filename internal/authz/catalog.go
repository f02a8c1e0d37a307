package authz

import "strings"

// Permission categories used to group catalog entries.
const (
	CategoryNavigation    = "navigation"
	CategoryTasks         = "tasks"
	CategoryClients       = "clients"
	CategoryUsers         = "users"
	CategoryFiles         = "files"
	CategoryComments      = "comments"
	CategoryRoles         = "roles"
	CategoryAudit         = "audit"
	CategoryNotifications = "notifications"
	CategoryImports       = "imports"
)

// Portal permissions. The catalog is closed: names may be added over releases
// but are never removed while a role still references them.
const (
	PermDashboardView = "dashboard.view"

	PermTasksView   = "tasks.view"
	PermTasksCreate = "tasks.create"
	PermTasksEdit   = "tasks.edit"
	PermTasksAssign = "tasks.assign"

	PermClientsView = "clients.view"
	PermClientsEdit = "clients.edit"

	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermFilesView    = "files.view"
	PermFilesUpload  = "files.upload"
	PermFilesApprove = "files.approve"
	PermFilesReject  = "files.reject"

	PermCommentsView   = "comments.view"
	PermCommentsCreate = "comments.create"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermAuditView = "audit.view"

	PermNotificationsSend = "notifications.send"

	PermImportsRun = "imports.run"
)

// CatalogEntry describes a named, atomic capability.
type CatalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

var catalog = []CatalogEntry{
	{PermDashboardView, "Access the portal dashboard", CategoryNavigation},
	{PermTasksView, "View bookkeeping tasks", CategoryTasks},
	{PermTasksCreate, "Create bookkeeping tasks", CategoryTasks},
	{PermTasksEdit, "Edit tasks and change their status", CategoryTasks},
	{PermTasksAssign, "Assign tasks to employees", CategoryTasks},
	{PermClientsView, "View client companies", CategoryClients},
	{PermClientsEdit, "Create and edit client companies", CategoryClients},
	{PermUsersView, "View portal users", CategoryUsers},
	{PermUsersEdit, "Create, edit and deactivate users", CategoryUsers},
	{PermFilesView, "View uploaded documents", CategoryFiles},
	{PermFilesUpload, "Upload documents", CategoryFiles},
	{PermFilesApprove, "Approve documents", CategoryFiles},
	{PermFilesReject, "Reject documents", CategoryFiles},
	{PermCommentsView, "View task comments", CategoryComments},
	{PermCommentsCreate, "Write task comments", CategoryComments},
	{PermRolesView, "View roles and permissions", CategoryRoles},
	{PermRolesEdit, "Create, edit and delete roles", CategoryRoles},
	{PermAuditView, "View the audit trail", CategoryAudit},
	{PermNotificationsSend, "Send manual notifications", CategoryNotifications},
	{PermImportsRun, "Trigger accounting system imports", CategoryImports},
}

var catalogByName = func() map[string]CatalogEntry {
	m := make(map[string]CatalogEntry, len(catalog))
	for _, entry := range catalog {
		m[entry.Name] = entry
	}
	return m
}()

// Catalog returns all registered permissions.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogNames returns every registered permission name.
func CatalogNames() []string {
	names := make([]string, len(catalog))
	for i, entry := range catalog {
		names[i] = entry.Name
	}
	return names
}

// KnownPermission reports whether name is part of the catalog.
func KnownPermission(name string) bool {
	_, ok := catalogByName[strings.TrimSpace(strings.ToLower(name))]
	return ok
}
