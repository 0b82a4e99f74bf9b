// Package validation checks request payloads field by field, collecting every
// failure so the client sees all messages at once.
package validation

import (
	"errors"
	"regexp"
	"time"

	"go.uber.org/multierr"
)

// DeadlineLayout is the wire format for task deadlines.
const DeadlineLayout = "2006-01-02"

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
	passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

type SignUpInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func ValidateSignUp(in SignUpInput) error {
	var err error

	switch {
	case in.Email == "":
		err = multierr.Append(err, errors.New("Email is required"))
	case !emailPattern.MatchString(in.Email):
		err = multierr.Append(err, errors.New("Invalid email address"))
	}

	switch {
	case in.Password == "":
		err = multierr.Append(err, errors.New("Password is required"))
	case len(in.Password) < 6:
		err = multierr.Append(err, errors.New("Password must be at least 6 characters"))
	case len(in.Password) > 20:
		err = multierr.Append(err, errors.New("Password cannot exceed 20 characters"))
	case !passwordPattern.MatchString(in.Password):
		err = multierr.Append(err, errors.New("Invalid password"))
	}

	switch {
	case in.ConfirmPassword == "":
		err = multierr.Append(err, errors.New("Password confirmation is required"))
	case in.ConfirmPassword != in.Password:
		err = multierr.Append(err, errors.New("Password confirmation does not match"))
	}

	return err
}

// TaskInput carries the mutable task fields. Pointers distinguish "absent"
// from zero values so the same shape serves create and partial update.
type TaskInput struct {
	Name        *string  `json:"name"`
	Note        *string  `json:"note"`
	Category    []string `json:"category"`
	IsImportant *bool    `json:"is_important"`
	IsUrgent    *bool    `json:"is_urgent"`
	Deadline    *string  `json:"deadline"`
}

func ValidateCreateTask(in TaskInput, now time.Time) error {
	var err error

	switch {
	case in.Name == nil:
		err = multierr.Append(err, errors.New("Task name is required"))
	case *in.Name == "":
		err = multierr.Append(err, errors.New("Task name must not be empty"))
	case len(*in.Name) > 255:
		err = multierr.Append(err, errors.New("Task name must not be over 255 characters"))
	}

	switch {
	case in.Category == nil:
		err = multierr.Append(err, errors.New("Task category is required"))
	case len(in.Category) == 0:
		err = multierr.Append(err, errors.New("Task category must be provided"))
	}

	if in.Deadline == nil {
		err = multierr.Append(err, errors.New("Deadline is required"))
	} else {
		err = multierr.Append(err, checkDeadline(*in.Deadline, now))
	}

	return err
}

func ValidateUpdateTask(in TaskInput, now time.Time) error {
	var err error

	if in.Name != nil {
		switch {
		case *in.Name == "":
			err = multierr.Append(err, errors.New("Task name must not be empty"))
		case len(*in.Name) > 255:
			err = multierr.Append(err, errors.New("Task name must not be over 255 characters"))
		}
	}

	if in.Category != nil && len(in.Category) == 0 {
		err = multierr.Append(err, errors.New("Task category must be provided"))
	}

	if in.Deadline != nil {
		err = multierr.Append(err, checkDeadline(*in.Deadline, now))
	}

	return err
}

func checkDeadline(raw string, now time.Time) error {
	day, err := time.ParseInLocation(DeadlineLayout, raw, time.UTC)
	if err != nil {
		return errors.New("Deadline must be a valid date (YYYY-MM-DD)")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return errors.New("Date must not be in the past.")
	}
	return nil
}

// ParseDeadline normalizes a deadline to the end of the named day: the
// following midnight UTC, so the task is due through the whole calendar day.
func ParseDeadline(raw string) (time.Time, error) {
	day, err := time.ParseInLocation(DeadlineLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return day.AddDate(0, 0, 1), nil
}

// Messages flattens a validation error into its individual messages.
func Messages(err error) []string {
	errs := multierr.Errors(err)
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return msgs
}
