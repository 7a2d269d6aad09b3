package model

import "github.com/google/uuid"

type SignUpInput struct {
	Email                string
	Password             string
	PasswordConfirmation string
	DisplayName          string
	Role                 Role
}

type SignInInput struct {
	Email    string
	Password string
}

type CreateAssessmentInput struct {
	CourseId    uuid.UUID
	Title       string
	Description *string
	Questions   []byte
	MaxScore    *int
}

type RepositoryCreateUserInput struct {
	Id           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Role         Role
}

type RepositoryCreateAssessmentInput struct {
	Id          uuid.UUID
	CourseId    uuid.UUID
	CreatedBy   uuid.UUID
	Title       string
	Description *string
	Questions   []byte
	MaxScore    int
}

type RepositoryCreateSubmissionInput struct {
	Id           uuid.UUID
	AssessmentId uuid.UUID
	StudentId    uuid.UUID
	Answers      []byte
	Score        int
}

type RepositoryUpdateSubmissionInput struct {
	Answers []byte
	Score   int
}

type RepositoryCreateConversationInput struct {
	Id        uuid.UUID
	TeacherId uuid.UUID
	StudentId uuid.UUID
}

type RepositoryCreateMessageInput struct {
	Id             uuid.UUID
	ConversationId uuid.UUID
	SenderId       uuid.UUID
	Body           string
}
