package rbac

// Permission names checked by the HTTP layer.
const (
	PermQuizTake        = "quiz:take"
	PermLessonsViewOwn  = "lessons:view-own"
	PermScopeView       = "scope:view"
	PermRosterView      = "roster:view"
	PermRemindersSend   = "reminders:send"
	PermAnalyticsView   = "analytics:view"
	PermResultsReview   = "results:review"
	PermItemsWrite      = "items:write"
	PermSnapshotRefresh = "snapshot:refresh"
	PermSyncView        = "sync:view"
)

// RolePermissions gates views only; the remote store remains the authority
// on what a user may change.
var RolePermissions = map[string][]string{
	"student": {
		PermQuizTake,
		PermLessonsViewOwn,
	},
	"teacher": {
		PermQuizTake,
		PermScopeView,
		PermRosterView,
		PermRemindersSend,
		PermAnalyticsView,
		PermResultsReview,
		PermItemsWrite,
		PermSnapshotRefresh,
		PermSyncView,
	},
	"admin": {
		"*", // everything
	},
}
