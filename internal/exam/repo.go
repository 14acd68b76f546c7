package exam

import "context"

// Sheet names of the remote store, used by item saves and deletes.
const (
	SheetUsers     = "Users"
	SheetSubjects  = "Subjects"
	SheetLessons   = "Lessons"
	SheetQuestions = "Questions"
)

// Store is the remote spreadsheet backend. It owns persistence,
// authentication and id generation; this service only reads snapshots and
// forwards writes.
type Store interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	Login(ctx context.Context, account, password string) (User, error)
	SubmitResult(ctx context.Context, r Result) error
	SaveItem(ctx context.Context, sheet string, item map[string]any, idKey string) error
	DeleteItem(ctx context.Context, sheet string, idValue any, idKey string) error
	Logout(ctx context.Context, name string) error
}
