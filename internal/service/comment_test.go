package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pixelgram/internal/model"
)

func newCommentService(comments *mockCommentRepository, posts *mockPostRepository, user *model.User) *CommentService {
	return NewCommentService(comments, posts, NewIdentityService(userRepoWith(user)))
}

func TestCommentService_Add_Success(t *testing.T) {
	user := testUser(1, "sub-1", "alice")
	comments := &mockCommentRepository{}
	svc := newCommentService(comments, &mockPostRepository{}, user)

	comment, err := svc.Add(context.Background(), "sub-1", 10, model.AddCommentRequest{
		Content: "  nice shot  ",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if comment.Content != "nice shot" {
		t.Errorf("content = %q, want trimmed %q", comment.Content, "nice shot")
	}
	if comment.Author == nil || comment.Author.ID != user.ID {
		t.Error("expected comment author to be attached")
	}
}

func TestCommentService_Add_Validation(t *testing.T) {
	user := testUser(1, "sub-1", "alice")

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"empty", "", model.ErrEmptyComment},
		{"whitespace only", "   \n\t ", model.ErrEmptyComment},
		{"too long", strings.Repeat("a", model.MaxCommentLength+1), model.ErrCommentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			comments := &mockCommentRepository{
				createFn: func(ctx context.Context, postID, userID int64, content string) (*model.Comment, error) {
					created = true
					return &model.Comment{}, nil
				},
			}
			svc := newCommentService(comments, &mockPostRepository{}, user)

			_, err := svc.Add(context.Background(), "sub-1", 10, model.AddCommentRequest{Content: tt.content})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if created {
				t.Error("invalid comment must not reach the repository")
			}
		})
	}
}

func TestCommentService_Add_MissingPost(t *testing.T) {
	user := testUser(1, "sub-1", "alice")
	comments := &mockCommentRepository{
		createFn: func(ctx context.Context, postID, userID int64, content string) (*model.Comment, error) {
			return nil, model.ErrPostNotFound
		},
	}
	svc := newCommentService(comments, &mockPostRepository{}, user)

	_, err := svc.Add(context.Background(), "sub-1", 404, model.AddCommentRequest{Content: "hello"})
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("err = %v, want ErrPostNotFound", err)
	}
}

func TestCommentService_Add_RequiresAuth(t *testing.T) {
	svc := newCommentService(&mockCommentRepository{}, &mockPostRepository{}, nil)

	_, err := svc.Add(context.Background(), "", 10, model.AddCommentRequest{Content: "hello"})
	if !errors.Is(err, model.ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestCommentService_List_MissingPost(t *testing.T) {
	posts := &mockPostRepository{
		existsFn: func(ctx context.Context, postID int64) (bool, error) {
			return false, nil
		},
	}
	svc := newCommentService(&mockCommentRepository{}, posts, nil)

	_, err := svc.List(context.Background(), 404, nil, 20)
	if !errors.Is(err, model.ErrPostNotFound) {
		t.Errorf("err = %v, want ErrPostNotFound", err)
	}
}

func TestCommentService_List_Paginates(t *testing.T) {
	posts := &mockPostRepository{
		existsFn: func(ctx context.Context, postID int64) (bool, error) {
			return true, nil
		},
	}
	next := "5:1700000000"
	comments := &mockCommentRepository{
		getByPostIDFn: func(ctx context.Context, postID int64, cursor *string, limit int) ([]model.Comment, *string, error) {
			if limit != DefaultCommentLimit {
				t.Errorf("limit = %d, want default %d", limit, DefaultCommentLimit)
			}
			return []model.Comment{{ID: 1, PostID: postID, Content: "first"}}, &next, nil
		},
	}
	svc := newCommentService(comments, posts, nil)

	resp, err := svc.List(context.Background(), 10, nil, 0)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !resp.HasMore {
		t.Error("expected has_more with a next cursor")
	}
	if resp.NextCursor == nil || *resp.NextCursor != next {
		t.Errorf("next cursor = %v, want %q", resp.NextCursor, next)
	}
}

func TestCommentService_Delete_OwnershipErrors(t *testing.T) {
	user := testUser(1, "sub-1", "alice")

	tests := []struct {
		name    string
		repoErr error
	}{
		{"not found", model.ErrCommentNotFound},
		{"not owner", model.ErrNotCommentOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments := &mockCommentRepository{
				deleteFn: func(ctx context.Context, commentID, userID int64) error {
					return tt.repoErr
				},
			}
			svc := newCommentService(comments, &mockPostRepository{}, user)

			err := svc.Delete(context.Background(), "sub-1", 5)
			if !errors.Is(err, tt.repoErr) {
				t.Errorf("err = %v, want %v", err, tt.repoErr)
			}
		})
	}
}
