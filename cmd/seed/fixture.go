package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"edupro/internal/model"
	"edupro/internal/quiz"
)

type Fixture struct {
	Users         []FixtureUser         `yaml:"users"`
	Assessments   []FixtureAssessment   `yaml:"assessments"`
	Conversations []FixtureConversation `yaml:"conversations"`
}

type FixtureUser struct {
	Key         string `yaml:"key"`
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
}

type FixtureAssessment struct {
	CourseId    string            `yaml:"course_id"`
	Author      string            `yaml:"author"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	MaxScore    int               `yaml:"max_score"`
	Questions   []FixtureQuestion `yaml:"questions"`
}

type FixtureQuestion struct {
	Text          string   `yaml:"question"`
	Options       []string `yaml:"options"`
	CorrectAnswer int      `yaml:"correct_answer"`
	Points        int      `yaml:"points"`
}

type FixtureConversation struct {
	Teacher  string           `yaml:"teacher"`
	Student  string           `yaml:"student"`
	Messages []FixtureMessage `yaml:"messages"`
}

type FixtureMessage struct {
	From string `yaml:"from"`
	Body string `yaml:"body"`
}

func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

func ParseFixture(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.UnmarshalStrict(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	roles := make(map[string]model.Role, len(f.Users))
	for i, u := range f.Users {
		if u.Key == "" || u.Email == "" || u.Password == "" {
			return fmt.Errorf("user %d: key, email and password are required", i)
		}
		role := model.Role(u.Role)
		if !role.IsValid() {
			return fmt.Errorf("user %q: unknown role %q", u.Key, u.Role)
		}
		if _, dup := roles[u.Key]; dup {
			return fmt.Errorf("user %q: duplicate key", u.Key)
		}
		roles[u.Key] = role
	}

	for i, a := range f.Assessments {
		if _, err := uuid.Parse(a.CourseId); err != nil {
			return fmt.Errorf("assessment %d: invalid course_id: %w", i, err)
		}
		if roles[a.Author] != model.RoleTeacher {
			return fmt.Errorf("assessment %d: author %q is not a teacher", i, a.Author)
		}
		raw, err := a.encodeQuestions()
		if err != nil {
			return fmt.Errorf("assessment %d: %w", i, err)
		}
		if _, err := quiz.ValidateQuestions(raw); err != nil {
			return fmt.Errorf("assessment %d: %w", i, err)
		}
	}

	for i, c := range f.Conversations {
		if roles[c.Teacher] != model.RoleTeacher || roles[c.Student] != model.RoleStudent {
			return fmt.Errorf("conversation %d: needs a known teacher and student", i)
		}
		for j, m := range c.Messages {
			if m.From != c.Teacher && m.From != c.Student {
				return fmt.Errorf("conversation %d message %d: sender %q is not a participant", i, j, m.From)
			}
		}
	}
	return nil
}

func (a FixtureAssessment) encodeQuestions() ([]byte, error) {
	questions := make([]quiz.Question, 0, len(a.Questions))
	for _, q := range a.Questions {
		points := q.Points
		if points == 0 {
			points = 1
		}
		questions = append(questions, quiz.Question{
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Points:        points,
		})
	}
	return quiz.EncodeQuestions(questions)
}
