package reconciler

import (
	"testing"

	"github.com/isdelr/eventhub-be/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAttendeeList_UpsertIsIdempotent(t *testing.T) {
	l := NewAttendeeList(nil)

	assert.True(t, l.Upsert(models.UserRef{ID: "u1", Name: "Ann"}))
	assert.False(t, l.Upsert(models.UserRef{ID: "u1", Name: "Ann"}))
	assert.False(t, l.Upsert(models.UserRef{ID: ""}))

	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Contains("u1"))
}

func TestAttendeeList_UpsertRefreshesName(t *testing.T) {
	l := NewAttendeeList([]models.UserRef{{ID: "u1", Name: "Ann"}})

	l.Upsert(models.UserRef{ID: "u1", Name: "Annie"})
	l.Upsert(models.UserRef{ID: "u1"})

	assert.Equal(t, []models.UserRef{{ID: "u1", Name: "Annie"}}, l.Items())
}

func TestAttendeeList_RemoveKeepsOrder(t *testing.T) {
	l := NewAttendeeList([]models.UserRef{
		{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}, {ID: "a", Name: "dup"},
	})
	assert.Equal(t, 3, l.Len())

	assert.True(t, l.Remove("b"))
	assert.False(t, l.Remove("b"))
	assert.False(t, l.Remove("missing"))

	assert.Equal(t, []models.UserRef{{ID: "a", Name: "A"}, {ID: "c", Name: "C"}}, l.Items())

	// The index must follow the shifted items.
	assert.True(t, l.Remove("c"))
	assert.True(t, l.Upsert(models.UserRef{ID: "d", Name: "D"}))
	assert.Equal(t, []models.UserRef{{ID: "a", Name: "A"}, {ID: "d", Name: "D"}}, l.Items())
}

func TestAttendeeList_ItemsIsACopy(t *testing.T) {
	l := NewAttendeeList([]models.UserRef{{ID: "a", Name: "A"}})

	items := l.Items()
	items[0].Name = "changed"

	assert.Equal(t, "A", l.Items()[0].Name)
}
