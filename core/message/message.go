// Package message implements one-to-one, course-scoped chat between members of a course.
package message

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/course"
	"github.com/trezcool/masomo-lms/core/notification"
	"github.com/trezcool/masomo-lms/core/user"
)

type (
	Message struct {
		ID          string    `json:"id"`
		CourseID    string    `json:"course_id"`
		SenderID    string    `json:"sender_id"`
		SenderName  string    `json:"sender_name"`
		RecipientID string    `json:"recipient_id"`
		Body        string    `json:"body"`
		SentAt      time.Time `json:"sent_at"`
	}

	NewMessage struct {
		CourseID    string `json:"course_id" validate:"required"`
		RecipientID string `json:"recipient_id" validate:"required"`
		Body        string `json:"body" validate:"required,notblank,max=2000"`
	}

	// Contact is the other participant of a course-scoped conversation.
	Contact struct {
		UserID     string `json:"user_id"`
		Name       string `json:"name"`
		Type       string `json:"type"`
		CourseID   string `json:"course_id"`
		CourseName string `json:"course_name"`
	}

	ConversationFilter struct {
		UserID    string
		ContactID string    `query:"contact_id"`
		CourseID  string    `query:"course_id"`
		After     time.Time `query:"after"`
	}

	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryConversation returns the messages exchanged between two users in a course,
		// sent strictly after ConversationFilter.After, oldest first.
		QueryConversation(ctx context.Context, filter ConversationFilter) ([]Message, error)
	}

	Courses interface {
		Get(ctx context.Context, id string) (course.Course, error)
		IsMember(ctx context.Context, usr user.User, courseID string) (bool, error)
		CourseIDsOf(ctx context.Context, usr user.User) ([]string, error)
		EnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)
	}

	Users interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Notifier interface {
		Notify(ctx context.Context, nn notification.NewNotification) (notification.Notification, error)
	}

	Service struct {
		repo     Repository
		courses  Courses
		users    Users
		notifier Notifier
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(repo Repository, courses Courses, users Users, notifier Notifier, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{repo: repo, courses: courses, users: users, notifier: notifier, validate: validate, logger: logger}
}

// Send delivers a message between two members of the same course.
func (svc *Service) Send(ctx context.Context, sender user.User, nm NewMessage) (Message, error) {
	nm.Body = core.CleanString(nm.Body)
	if err := svc.validate.Struct(nm); err != nil {
		return Message{}, err
	}
	if nm.RecipientID == sender.ID {
		return Message{}, core.NewValidationError(nil, core.FieldError{Field: "recipient_id", Error: "cannot message yourself"})
	}

	if ok, err := svc.courses.IsMember(ctx, sender, nm.CourseID); err != nil {
		if err == course.ErrNotFound {
			return Message{}, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return Message{}, err
	} else if !ok {
		return Message{}, core.ErrPermissionDenied
	}

	recipient, err := svc.users.GetByID(ctx, nm.RecipientID)
	if err != nil {
		if err == user.ErrNotFound {
			return Message{}, core.NewValidationError(err, core.FieldError{Field: "recipient_id", Error: err.Error()})
		}
		return Message{}, err
	}
	ok, err := svc.courses.IsMember(ctx, recipient, nm.CourseID)
	if err != nil {
		return Message{}, err
	}
	if !ok {
		return Message{}, core.NewValidationError(nil, core.FieldError{Field: "recipient_id", Error: "recipient is not a member of this course"})
	}

	msg, err := svc.repo.CreateMessage(ctx, Message{
		ID:          uuid.New().String(),
		CourseID:    nm.CourseID,
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		RecipientID: recipient.ID,
		Body:        nm.Body,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		return Message{}, err
	}

	if _, err = svc.notifier.Notify(ctx, notification.NewNotification{
		UserID:  recipient.ID,
		Kind:    notification.KindMessage,
		Message: fmt.Sprintf("New message from %s", sender.Name),
		Link:    fmt.Sprintf("/messages/conversation?contact_id=%s&course_id=%s", sender.ID, msg.CourseID),
	}); err != nil {
		svc.logger.Error(err.Error(), err)
	}
	return msg, nil
}

// Contacts lists the people `usr` can talk to: for each of their courses,
// the teacher and the enrolled students, except `usr`.
func (svc *Service) Contacts(ctx context.Context, usr user.User) ([]Contact, error) {
	courseIDs, err := svc.courses.CourseIDsOf(ctx, usr)
	if err != nil {
		return nil, err
	}

	contacts := make([]Contact, 0)
	for _, courseID := range courseIDs {
		crs, err := svc.courses.Get(ctx, courseID)
		if err != nil {
			return nil, err
		}
		memberIDs, err := svc.courses.EnrolledStudentIDs(ctx, courseID)
		if err != nil {
			return nil, err
		}
		memberIDs = append([]string{crs.TeacherID}, memberIDs...)
		for _, id := range memberIDs {
			if id == usr.ID {
				continue
			}
			member, err := svc.users.GetByID(ctx, id)
			if err != nil {
				if err == user.ErrNotFound {
					continue
				}
				return nil, err
			}
			if !member.IsActive {
				continue
			}
			contacts = append(contacts, Contact{
				UserID:     member.ID,
				Name:       member.Name,
				Type:       member.Type,
				CourseID:   crs.ID,
				CourseName: crs.Title,
			})
		}
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].CourseName != contacts[j].CourseName {
			return contacts[i].CourseName < contacts[j].CourseName
		}
		return contacts[i].Name < contacts[j].Name
	})
	return contacts, nil
}

// Conversation returns the messages between `usr` and a contact in a course.
func (svc *Service) Conversation(ctx context.Context, usr user.User, filter ConversationFilter) ([]Message, error) {
	if filter.ContactID == "" || filter.CourseID == "" {
		return nil, core.NewValidationError(nil,
			core.FieldError{Field: "contact_id", Error: "contact_id and course_id are required"},
		)
	}
	ok, err := svc.courses.IsMember(ctx, usr, filter.CourseID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrPermissionDenied
	}
	filter.UserID = usr.ID
	return svc.repo.QueryConversation(ctx, filter)
}
