package memory

import (
	"context"
	"testing"
	"time"

	"library-circulation/internal/circulation/models"
	"library-circulation/internal/circulation/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudents_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	students := NewStudents()

	st := &models.Student{StudentID: "S1", StudentName: "Amina", PasswordHash: "h"}
	require.NoError(t, students.Create(ctx, st))
	assert.NotEmpty(t, st.ID)
	assert.Equal(t, models.RoleStudent, st.Role)

	found, err := students.FindByStudentID(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Amina", found.StudentName)

	_, err = students.FindByStudentID(ctx, "S2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStudents_DuplicateStudentID(t *testing.T) {
	ctx := context.Background()
	students := NewStudents()

	require.NoError(t, students.Create(ctx, &models.Student{StudentID: "S1", StudentName: "A"}))
	err := students.Create(ctx, &models.Student{StudentID: "S1", StudentName: "B"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	found, err := students.FindByStudentID(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "A", found.StudentName)
}

func TestStudents_TouchLastLogin(t *testing.T) {
	ctx := context.Background()
	students := NewStudents()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, students.TouchLastLogin(ctx, "S1", at), repository.ErrNotFound)

	require.NoError(t, students.Create(ctx, &models.Student{StudentID: "S1", StudentName: "A"}))
	require.NoError(t, students.TouchLastLogin(ctx, "S1", at))

	found, err := students.FindByStudentID(ctx, "S1")
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.Equal(t, at, *found.LastLogin)
}
