package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestWithMessageCopies(t *testing.T) {
	with := ErrNotFound.WithMessage("User not found")

	if with == ErrNotFound {
		t.Fatal("expected WithMessage to return a copy")
	}
	if with.Message != "User not found" {
		t.Fatalf("unexpected message: %s", with.Message)
	}
	if with.Code != ErrNotFound.Code || with.StatusCode != ErrNotFound.StatusCode {
		t.Fatal("expected code and status to be preserved")
	}
	if ErrNotFound.Message == "User not found" {
		t.Fatal("expected original error to remain unchanged")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrSelfFollow
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestSocialGraphErrorStatuses(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{ErrSelfFollow, http.StatusBadRequest},
		{ErrAlreadyFollowing, http.StatusConflict},
		{ErrNotFollowing, http.StatusNotFound},
		{ErrPrivateProfile, http.StatusForbidden},
		{ErrAlreadyLiked, http.StatusConflict},
		{ErrSelfRecommend, http.StatusBadRequest},
	}

	for _, tc := range cases {
		if tc.err.StatusCode != tc.status {
			t.Fatalf("%s: expected status %d got %d", tc.err.Code, tc.status, tc.err.StatusCode)
		}
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")

	if err.Code != ErrBadRequest.Code {
		t.Fatalf("unexpected code: %s", err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
}
