package repository

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alexarts74/payetavie/internal/model"
)

func TestBuildUpdateQuery(t *testing.T) {
	title := "Vérifier l'avis"
	blank := ""
	note := "courrier reçu"
	done := true
	due := model.NewDate(2025, time.October, 1)

	tests := []struct {
		name      string
		patch     model.ReminderPatch
		wantSet   string
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "title only",
			patch:     model.ReminderPatch{Title: &title},
			wantSet:   "SET title = $1, updated_at = now()",
			wantWhere: "WHERE id = $2 AND user_id = $3",
			wantArgs:  []any{title, "rem-1", "user-1"},
		},
		{
			name:      "empty description becomes null",
			patch:     model.ReminderPatch{Description: &blank},
			wantSet:   "SET description = $1, updated_at = now()",
			wantWhere: "WHERE id = $2 AND user_id = $3",
			wantArgs:  []any{nil, "rem-1", "user-1"},
		},
		{
			name:      "cleared due date takes no argument",
			patch:     model.ReminderPatch{ClearDueDate: true, DueDate: &due, Completed: &done},
			wantSet:   "SET due_date = NULL, completed = $1, updated_at = now()",
			wantWhere: "WHERE id = $2 AND user_id = $3",
			wantArgs:  []any{true, "rem-1", "user-1"},
		},
		{
			name:      "every column",
			patch:     model.ReminderPatch{Title: &title, Description: &note, DueDate: &due, Completed: &done},
			wantSet:   "SET title = $1, description = $2, due_date = $3, completed = $4, updated_at = now()",
			wantWhere: "WHERE id = $5 AND user_id = $6",
			wantArgs:  []any{title, note, due, true, "rem-1", "user-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildUpdateQuery("user-1", "rem-1", tt.patch)
			query = strings.Join(strings.Fields(query), " ")

			if !strings.Contains(query, tt.wantSet) {
				t.Errorf("query %q missing %q", query, tt.wantSet)
			}
			if !strings.Contains(query, tt.wantWhere) {
				t.Errorf("query %q missing %q", query, tt.wantWhere)
			}
			if !strings.HasSuffix(query, "RETURNING "+reminderColumns) {
				t.Errorf("query %q does not return the reminder columns", query)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestListByTopicQueryOrder(t *testing.T) {
	query := strings.Join(strings.Fields(listByTopicQuery), " ")
	if !strings.HasSuffix(query, "ORDER BY due_date ASC NULLS LAST, created_at DESC") {
		t.Errorf("unexpected ordering in %q", query)
	}
	if !strings.Contains(query, "WHERE user_id = $1 AND topic_slug = $2") {
		t.Errorf("list not scoped to owner and topic: %q", query)
	}
}
