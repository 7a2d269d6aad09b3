package data

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edupro/internal/errdefs"
	"edupro/internal/model"
	"edupro/internal/quiz"
)

var (
	userCols         = []string{"id", "email", "password_hash", "display_name", "role", "created_at", "edited_at"}
	submissionCols   = []string{"id", "assessment_id", "student_id", "answers", "score", "submitted_at", "created_at"}
	conversationCols = []string{"id", "teacher_id", "student_id", "created_at", "updated_at"}
	messageCols      = []string{"id", "conversation_id", "sender_id", "body", "read", "created_at"}
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestHandleError(t *testing.T) {
	t.Run("UniqueViolation", func(t *testing.T) {
		err := handleError("user", &pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, err, errdefs.ErrAlreadyExists)
		assert.EqualError(t, err, "user already exists")
	})

	t.Run("NoRows", func(t *testing.T) {
		err := handleError("submission", pgx.ErrNoRows)
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
		assert.EqualError(t, err, "submission not found")
	})

	t.Run("ForeignKeyViolation", func(t *testing.T) {
		err := handleError("message", &pgconn.PgError{Code: "23503", ConstraintName: "messages_conversation_id_fkey"})
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
		assert.EqualError(t, err, "message references a row that was not found")
	})

	t.Run("CheckViolation", func(t *testing.T) {
		err := handleError("message", &pgconn.PgError{Code: "23514", ConstraintName: "messages_body_check"})
		assert.ErrorIs(t, err, errdefs.ErrValidation)
		assert.EqualError(t, err, "message violates messages_body_check: validation error")
	})

	t.Run("Other", func(t *testing.T) {
		err := handleError("assessment", errors.New("boom"))
		assert.False(t, errors.Is(err, errdefs.ErrNotFound))
		assert.EqualError(t, err, "assessment repository: boom")
	})
}

func TestUserRepository_CreateUser(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(id, "a@b.c", "hash", "Ann", model.RoleTeacher).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(id, "a@b.c", "hash", "Ann", model.RoleTeacher, now, now))

	user, err := repo.CreateUser(context.Background(), &model.RepositoryCreateUserInput{
		Id:           id,
		Email:        "a@b.c",
		PasswordHash: "hash",
		DisplayName:  "Ann",
		Role:         model.RoleTeacher,
	})
	require.NoError(t, err)
	assert.Equal(t, id, user.Id)
	assert.Equal(t, model.RoleTeacher, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser_Duplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	input := &model.RepositoryCreateUserInput{
		Id:           uuid.New(),
		Email:        "a@b.c",
		PasswordHash: "hash",
		DisplayName:  "Ann",
		Role:         model.RoleStudent,
	}

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(input.Id, input.Email, input.PasswordHash, input.DisplayName, input.Role).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.CreateUser(context.Background(), input)
	assert.ErrorIs(t, err, errdefs.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByEmail_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery("SELECT .* FROM users WHERE lower\\(email\\)").
		WithArgs("x@y.z").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "x@y.z")
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestAssessmentRepository_GetAssessment(t *testing.T) {
	mock := newMock(t)
	repo := NewAssessmentRepository(mock)
	id, courseID, teacherID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()
	questions := json.RawMessage(`[{"question":"q","options":["a","b"],"correctAnswer":1}]`)

	mock.ExpectQuery("SELECT .* FROM assessments WHERE id =").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "course_id", "created_by", "title", "description", "questions", "max_score", "created_at", "edited_at",
		}).AddRow(id, courseID, teacherID, "Quiz", nil, questions, 100, now, now))

	a, err := repo.GetAssessment(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, courseID, a.CourseId)
	assert.Nil(t, a.Description)
	assert.Len(t, a.Questions(), 1)
}

func TestSubmissionRepository_UpdateSubmission(t *testing.T) {
	mock := newMock(t)
	repo := NewSubmissionRepository(mock)
	id, assessmentID, studentID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()
	answers := []byte(`{"0":1}`)

	mock.ExpectQuery("UPDATE submissions").
		WithArgs(answers, 75, id).
		WillReturnRows(pgxmock.NewRows(submissionCols).
			AddRow(id, assessmentID, studentID, quiz.Answers{0: 1}, 75, now, now.Add(-time.Hour)))

	s, err := repo.UpdateSubmission(context.Background(), id, &model.RepositoryUpdateSubmissionInput{
		Answers: answers,
		Score:   75,
	})
	require.NoError(t, err)
	assert.Equal(t, id, s.Id)
	assert.Equal(t, quiz.Answers{0: 1}, s.Answers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_GetSubmission_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewSubmissionRepository(mock)
	assessmentID, studentID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT .* FROM submissions WHERE assessment_id =").
		WithArgs(assessmentID, studentID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetSubmission(context.Background(), assessmentID, studentID)
	assert.ErrorIs(t, err, errdefs.ErrNotFound)
}

func TestConversationRepository_CreateConversation_Duplicate(t *testing.T) {
	mock := newMock(t)
	repo := NewConversationRepository(mock)
	input := &model.RepositoryCreateConversationInput{Id: uuid.New(), TeacherId: uuid.New(), StudentId: uuid.New()}

	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs(input.Id, input.TeacherId, input.StudentId).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "conversations_teacher_id_student_id_key"})

	_, err := repo.CreateConversation(context.Background(), input)
	assert.ErrorIs(t, err, errdefs.ErrAlreadyExists)
}

func TestConversationRepository_ListForUser(t *testing.T) {
	mock := newMock(t)
	repo := NewConversationRepository(mock)
	teacherID, studentID, convID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery("FROM conversations c\\s+JOIN users u ON u.id = c.student_id.*WHERE c.teacher_id = \\$1").
		WithArgs(teacherID).
		WillReturnRows(pgxmock.NewRows(append(conversationCols,
			"counterpart_id", "counterpart_display_name", "counterpart_role")).
			AddRow(convID, teacherID, studentID, now, now, studentID, "Sam", model.RoleStudent))

	list, err := repo.ListForUser(context.Background(), teacherID, model.RoleTeacher)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, convID, list[0].Id)
	assert.Equal(t, "Sam", list[0].CounterpartDisplayName)
	assert.Equal(t, model.RoleStudent, list[0].CounterpartRole)
}

func TestConversationRepository_ListForUser_UnknownRole(t *testing.T) {
	repo := NewConversationRepository(newMock(t))

	_, err := repo.ListForUser(context.Background(), uuid.New(), model.Role("admin"))
	assert.Error(t, err)
}

func TestMessageRepository_CreateMessage(t *testing.T) {
	convID, senderID, msgID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock := newMock(t)
		repo := NewMessageRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO messages").
			WithArgs(msgID, convID, senderID, "hello").
			WillReturnRows(pgxmock.NewRows(messageCols).AddRow(msgID, convID, senderID, "hello", false, now))
		mock.ExpectExec("UPDATE conversations SET updated_at").
			WithArgs(now, convID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		msg, err := repo.CreateMessage(context.Background(), &model.RepositoryCreateMessageInput{
			Id: msgID, ConversationId: convID, SenderId: senderID, Body: "hello",
		})
		require.NoError(t, err)
		assert.Equal(t, msgID, msg.Id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("TimestampUpdateFailsRollsBack", func(t *testing.T) {
		mock := newMock(t)
		repo := NewMessageRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO messages").
			WithArgs(msgID, convID, senderID, "hello").
			WillReturnRows(pgxmock.NewRows(messageCols).AddRow(msgID, convID, senderID, "hello", false, now))
		mock.ExpectExec("UPDATE conversations SET updated_at").
			WithArgs(now, convID).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := repo.CreateMessage(context.Background(), &model.RepositoryCreateMessageInput{
			Id: msgID, ConversationId: convID, SenderId: senderID, Body: "hello",
		})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ConversationMissing", func(t *testing.T) {
		mock := newMock(t)
		repo := NewMessageRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO messages").
			WithArgs(msgID, convID, senderID, "hello").
			WillReturnRows(pgxmock.NewRows(messageCols).AddRow(msgID, convID, senderID, "hello", false, now))
		mock.ExpectExec("UPDATE conversations SET updated_at").
			WithArgs(now, convID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		_, err := repo.CreateMessage(context.Background(), &model.RepositoryCreateMessageInput{
			Id: msgID, ConversationId: convID, SenderId: senderID, Body: "hello",
		})
		assert.ErrorIs(t, err, errdefs.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyBodyRejectedByCheck", func(t *testing.T) {
		mock := newMock(t)
		repo := NewMessageRepository(mock)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO messages").
			WithArgs(msgID, convID, senderID, " ").
			WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "messages_body_check"})
		mock.ExpectRollback()

		_, err := repo.CreateMessage(context.Background(), &model.RepositoryCreateMessageInput{
			Id: msgID, ConversationId: convID, SenderId: senderID, Body: " ",
		})
		assert.ErrorIs(t, err, errdefs.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageRepository_ListByConversations_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewMessageRepository(mock)

	list, err := repo.ListByConversations(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkRead(t *testing.T) {
	mock := newMock(t)
	repo := NewMessageRepository(mock)
	convID, readerID := uuid.New(), uuid.New()

	mock.ExpectExec("UPDATE messages\\s+SET read = true").
		WithArgs(convID, readerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.MarkRead(context.Background(), convID, readerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
