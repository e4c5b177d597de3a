package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kontrakwise/backend/internal/model"
	appErr "github.com/kontrakwise/backend/internal/pkg/errors"
	"github.com/kontrakwise/backend/internal/repo"
	"github.com/kontrakwise/backend/test/testutil"
)

func TestDocumentTypeRepoRiskRulesRoundTrip(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	types := repo.NewDocumentTypeRepo(db)

	now := time.Now().UnixMilli()
	item := &model.DocumentType{
		ID:     "dt-rules-1",
		UserID: "dt-user",
		Name:   "NDA",
		RiskRules: []model.RiskRule{
			{Title: "Perpetual confidentiality", Severity: "medium", Description: "No sunset clause"},
		},
		Ctime: now,
		Mtime: now,
	}
	require.NoError(t, types.Create(ctx, item))
	defer func() { _ = types.Delete(ctx, "dt-user", item.ID) }()

	fetched, err := types.Get(ctx, "dt-user", item.ID)
	require.NoError(t, err)
	require.Len(t, fetched.RiskRules, 1)
	require.Equal(t, "Perpetual confidentiality", fetched.RiskRules[0].Title)
	require.Equal(t, "medium", fetched.RiskRules[0].Severity)
}

func TestDocumentTypeRepoBuiltinVisibility(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()
	types := repo.NewDocumentTypeRepo(db)

	now := time.Now().UnixMilli()
	builtin := &model.DocumentType{ID: "dt-builtin-1", Name: "Employment", Ctime: now, Mtime: now}
	mine := &model.DocumentType{ID: "dt-mine-1", UserID: "dt-vis-user", Name: "Custom", Ctime: now, Mtime: now}
	theirs := &model.DocumentType{ID: "dt-theirs-1", UserID: "dt-vis-other", Name: "Private", Ctime: now, Mtime: now}
	require.NoError(t, types.Create(ctx, builtin))
	require.NoError(t, types.Create(ctx, mine))
	require.NoError(t, types.Create(ctx, theirs))
	defer func() {
		_, _ = db.ExecContext(ctx, "DELETE FROM document_types WHERE id IN ($1, $2, $3)", builtin.ID, mine.ID, theirs.ID)
	}()

	visible, err := types.ListVisible(ctx, "dt-vis-user", 0, 0)
	require.NoError(t, err)
	ids := make(map[string]bool)
	for _, item := range visible {
		ids[item.ID] = true
	}
	require.True(t, ids[builtin.ID])
	require.True(t, ids[mine.ID])
	require.False(t, ids[theirs.ID])

	// Built-ins can be read but not written by a user.
	_, err = types.Get(ctx, "dt-vis-user", builtin.ID)
	require.NoError(t, err)

	builtin.UserID = "dt-vis-user"
	builtin.Name = "hijacked"
	err = types.Update(ctx, builtin)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	err = types.Delete(ctx, "dt-vis-user", "dt-builtin-1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}
