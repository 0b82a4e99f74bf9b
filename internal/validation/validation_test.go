package validation

import (
	"testing"
	"time"
)

func strp(s string) *string { return &s }

func hasMessage(err error, want string) bool {
	for _, msg := range Messages(err) {
		if msg == want {
			return true
		}
	}
	return false
}

func TestValidateSignUp(t *testing.T) {
	valid := SignUpInput{Email: "alice@example.com", Password: "secret12", ConfirmPassword: "secret12"}
	if err := ValidateSignUp(valid); err != nil {
		t.Errorf("valid input rejected: %v", Messages(err))
	}

	cases := []struct {
		name string
		in   SignUpInput
		want string
	}{
		{"missing email", SignUpInput{Password: "secret12", ConfirmPassword: "secret12"}, "Email is required"},
		{"bad email", SignUpInput{Email: "not-an-email", Password: "secret12", ConfirmPassword: "secret12"}, "Invalid email address"},
		{"missing password", SignUpInput{Email: "a@b.com", ConfirmPassword: "x"}, "Password is required"},
		{"short password", SignUpInput{Email: "a@b.com", Password: "ab1", ConfirmPassword: "ab1"}, "Password must be at least 6 characters"},
		{"long password", SignUpInput{Email: "a@b.com", Password: "abcdefghij0123456789x", ConfirmPassword: "abcdefghij0123456789x"}, "Password cannot exceed 20 characters"},
		{"non-alphanumeric password", SignUpInput{Email: "a@b.com", Password: "secret!!", ConfirmPassword: "secret!!"}, "Invalid password"},
		{"missing confirmation", SignUpInput{Email: "a@b.com", Password: "secret12"}, "Password confirmation is required"},
		{"mismatched confirmation", SignUpInput{Email: "a@b.com", Password: "secret12", ConfirmPassword: "secret13"}, "Password confirmation does not match"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSignUp(tc.in)
			if err == nil {
				t.Fatal("expected error")
			}
			if !hasMessage(err, tc.want) {
				t.Errorf("messages = %v, want to contain %q", Messages(err), tc.want)
			}
		})
	}
}

func TestValidateSignUpCollectsAllFailures(t *testing.T) {
	err := ValidateSignUp(SignUpInput{})
	if got := len(Messages(err)); got != 3 {
		t.Errorf("messages = %v, want 3 (one per field)", Messages(err))
	}
}

func TestValidateCreateTask(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	valid := TaskInput{
		Name:     strp("Write report"),
		Category: []string{"work"},
		Deadline: strp("2026-03-10"),
	}
	if err := ValidateCreateTask(valid, now); err != nil {
		t.Errorf("valid input rejected: %v", Messages(err))
	}

	cases := []struct {
		name string
		in   TaskInput
		want string
	}{
		{"missing name", TaskInput{Category: []string{"x"}, Deadline: strp("2026-03-10")}, "Task name is required"},
		{"empty name", TaskInput{Name: strp(""), Category: []string{"x"}, Deadline: strp("2026-03-10")}, "Task name must not be empty"},
		{"missing category", TaskInput{Name: strp("x"), Deadline: strp("2026-03-10")}, "Task category is required"},
		{"empty category", TaskInput{Name: strp("x"), Category: []string{}, Deadline: strp("2026-03-10")}, "Task category must be provided"},
		{"missing deadline", TaskInput{Name: strp("x"), Category: []string{"x"}}, "Deadline is required"},
		{"garbage deadline", TaskInput{Name: strp("x"), Category: []string{"x"}, Deadline: strp("tomorrow")}, "Deadline must be a valid date (YYYY-MM-DD)"},
		{"past deadline", TaskInput{Name: strp("x"), Category: []string{"x"}, Deadline: strp("2026-03-09")}, "Date must not be in the past."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCreateTask(tc.in, now)
			if err == nil {
				t.Fatal("expected error")
			}
			if !hasMessage(err, tc.want) {
				t.Errorf("messages = %v, want to contain %q", Messages(err), tc.want)
			}
		})
	}
}

func TestValidateUpdateTaskPartial(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	// Absent fields are fine on update.
	if err := ValidateUpdateTask(TaskInput{}, now); err != nil {
		t.Errorf("empty update rejected: %v", Messages(err))
	}

	// Present fields are still checked.
	err := ValidateUpdateTask(TaskInput{Name: strp(""), Deadline: strp("2020-01-01")}, now)
	if !hasMessage(err, "Task name must not be empty") {
		t.Errorf("messages = %v, want empty-name failure", Messages(err))
	}
	if !hasMessage(err, "Date must not be in the past.") {
		t.Errorf("messages = %v, want past-date failure", Messages(err))
	}
}

func TestParseDeadline(t *testing.T) {
	got, err := ParseDeadline("2026-03-10")
	if err != nil {
		t.Fatalf("parse deadline: %v", err)
	}
	// The task stays due through the whole named day.
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("deadline = %v, want %v", got, want)
	}

	if _, err := ParseDeadline("03/10/2026"); err == nil {
		t.Error("expected error for wrong layout")
	}
}
