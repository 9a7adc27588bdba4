package progress

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jadihebat/platform/internal/apperror"
	"github.com/jadihebat/platform/internal/images"
)

func testImages() *images.Builder {
	return images.NewBuilder("https://assets.jadihebat.com")
}

// --- Mocks ---

// mockProgressRepo implements ProgressRepository for testing.
type mockProgressRepo struct {
	findEnrollmentFn           func(ctx context.Context, userID, courseID string) (*Enrollment, error)
	createEnrollmentFn         func(ctx context.Context, userID, courseID string) (*Enrollment, error)
	updateEnrollmentProgressFn func(ctx context.Context, userID, courseID string, percent int) error
	listUserEnrollmentsFn      func(ctx context.Context, userID string) ([]EnrolledCourse, error)
	upsertLessonProgressFn     func(ctx context.Context, userID, lessonID, courseID string, completed bool) error
	listLessonProgressFn       func(ctx context.Context, userID, courseID string) ([]LessonProgress, error)
	isLessonCompletedFn        func(ctx context.Context, userID, lessonID string) (bool, error)
	countCompletedFn           func(ctx context.Context, userID, courseID string) (int, error)
}

func (m *mockProgressRepo) FindEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	if m.findEnrollmentFn != nil {
		return m.findEnrollmentFn(ctx, userID, courseID)
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgressRepo) CreateEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	if m.createEnrollmentFn != nil {
		return m.createEnrollmentFn(ctx, userID, courseID)
	}
	return &Enrollment{ID: "e1", UserID: userID, CourseID: courseID}, nil
}

func (m *mockProgressRepo) UpdateEnrollmentProgress(ctx context.Context, userID, courseID string, percent int) error {
	if m.updateEnrollmentProgressFn != nil {
		return m.updateEnrollmentProgressFn(ctx, userID, courseID, percent)
	}
	return nil
}

func (m *mockProgressRepo) ListUserEnrollments(ctx context.Context, userID string) ([]EnrolledCourse, error) {
	if m.listUserEnrollmentsFn != nil {
		return m.listUserEnrollmentsFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockProgressRepo) UpsertLessonProgress(ctx context.Context, userID, lessonID, courseID string, completed bool) error {
	if m.upsertLessonProgressFn != nil {
		return m.upsertLessonProgressFn(ctx, userID, lessonID, courseID, completed)
	}
	return nil
}

func (m *mockProgressRepo) ListLessonProgress(ctx context.Context, userID, courseID string) ([]LessonProgress, error) {
	if m.listLessonProgressFn != nil {
		return m.listLessonProgressFn(ctx, userID, courseID)
	}
	return nil, nil
}

func (m *mockProgressRepo) IsLessonCompleted(ctx context.Context, userID, lessonID string) (bool, error) {
	if m.isLessonCompletedFn != nil {
		return m.isLessonCompletedFn(ctx, userID, lessonID)
	}
	return false, nil
}

func (m *mockProgressRepo) CountCompleted(ctx context.Context, userID, courseID string) (int, error) {
	if m.countCompletedFn != nil {
		return m.countCompletedFn(ctx, userID, courseID)
	}
	return 0, nil
}

// mockLessonCounter implements LessonCounter.
type mockLessonCounter struct {
	countLessonsFn func(ctx context.Context, courseID string) (int, error)
}

func (m *mockLessonCounter) CountLessons(ctx context.Context, courseID string) (int, error) {
	if m.countLessonsFn != nil {
		return m.countLessonsFn(ctx, courseID)
	}
	return 0, nil
}

// --- Tests ---

func TestEnroll_CreatesEnrollment(t *testing.T) {
	repo := &mockProgressRepo{
		createEnrollmentFn: func(ctx context.Context, userID, courseID string) (*Enrollment, error) {
			return &Enrollment{ID: "e1", UserID: userID, CourseID: courseID}, nil
		},
	}
	svc := NewProgressService(repo, &mockLessonCounter{}, testImages())

	enrollment, err := svc.Enroll(context.Background(), "user-1", "course-1")
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if enrollment.UserID != "user-1" || enrollment.CourseID != "course-1" {
		t.Errorf("unexpected enrollment: %+v", enrollment)
	}
}

func TestEnroll_AlreadyEnrolled(t *testing.T) {
	existing := &Enrollment{ID: "e1", UserID: "user-1", CourseID: "course-1", ProgressPercent: 40}
	created := false
	repo := &mockProgressRepo{
		findEnrollmentFn: func(ctx context.Context, userID, courseID string) (*Enrollment, error) {
			return existing, nil
		},
		createEnrollmentFn: func(ctx context.Context, userID, courseID string) (*Enrollment, error) {
			created = true
			return nil, nil
		},
	}
	svc := NewProgressService(repo, &mockLessonCounter{}, testImages())

	enrollment, err := svc.Enroll(context.Background(), "user-1", "course-1")
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 409 {
		t.Errorf("want 409 AppError, got %v", err)
	}
	if enrollment != existing {
		t.Errorf("existing enrollment should be returned alongside the conflict")
	}
	if created {
		t.Error("no second enrollment row may be created")
	}
}

func TestIsEnrolled(t *testing.T) {
	repo := &mockProgressRepo{
		findEnrollmentFn: func(ctx context.Context, userID, courseID string) (*Enrollment, error) {
			if courseID == "enrolled" {
				return &Enrollment{ID: "e1"}, nil
			}
			return nil, sql.ErrNoRows
		},
	}
	svc := NewProgressService(repo, &mockLessonCounter{}, testImages())

	if ok, err := svc.IsEnrolled(context.Background(), "u", "enrolled"); err != nil || !ok {
		t.Errorf("IsEnrolled(enrolled) = %v, %v", ok, err)
	}
	if ok, err := svc.IsEnrolled(context.Background(), "u", "other"); err != nil || ok {
		t.Errorf("IsEnrolled(other) = %v, %v", ok, err)
	}
}

func TestSetLessonCompletion_RecomputesPercentage(t *testing.T) {
	var storedPercent int
	repo := &mockProgressRepo{
		countCompletedFn: func(ctx context.Context, userID, courseID string) (int, error) {
			return 3, nil
		},
		updateEnrollmentProgressFn: func(ctx context.Context, userID, courseID string, percent int) error {
			storedPercent = percent
			return nil
		},
	}
	counter := &mockLessonCounter{
		countLessonsFn: func(ctx context.Context, courseID string) (int, error) {
			return 8, nil
		},
	}
	svc := NewProgressService(repo, counter, testImages())

	if err := svc.SetLessonCompletion(context.Background(), "user-1", "lesson-1", "course-1", true); err != nil {
		t.Fatalf("SetLessonCompletion: %v", err)
	}
	if storedPercent != 37 { // 3/8 with integer math
		t.Errorf("stored percent = %d, want 37", storedPercent)
	}
}

func TestSetLessonCompletion_StatsFailureIsNotFatal(t *testing.T) {
	repo := &mockProgressRepo{}
	counter := &mockLessonCounter{
		countLessonsFn: func(ctx context.Context, courseID string) (int, error) {
			return 0, errors.New("db down")
		},
	}
	svc := NewProgressService(repo, counter, testImages())

	if err := svc.SetLessonCompletion(context.Background(), "user-1", "lesson-1", "course-1", true); err != nil {
		t.Errorf("a stats failure must not fail the completion: %v", err)
	}
}

func TestSetLessonCompletion_UpsertFailure(t *testing.T) {
	repo := &mockProgressRepo{
		upsertLessonProgressFn: func(ctx context.Context, userID, lessonID, courseID string, completed bool) error {
			return errors.New("db down")
		},
	}
	svc := NewProgressService(repo, &mockLessonCounter{}, testImages())

	if err := svc.SetLessonCompletion(context.Background(), "user-1", "lesson-1", "course-1", true); err == nil {
		t.Error("upsert failure must surface")
	}
}

func TestGetCourseStats(t *testing.T) {
	t.Run("partial progress", func(t *testing.T) {
		repo := &mockProgressRepo{
			countCompletedFn: func(ctx context.Context, userID, courseID string) (int, error) {
				return 5, nil
			},
		}
		counter := &mockLessonCounter{
			countLessonsFn: func(ctx context.Context, courseID string) (int, error) {
				return 10, nil
			},
		}
		svc := NewProgressService(repo, counter, testImages())

		stats, err := svc.GetCourseStats(context.Background(), "u", "c")
		if err != nil {
			t.Fatalf("GetCourseStats: %v", err)
		}
		if stats.TotalLessons != 10 || stats.CompletedLessons != 5 || stats.ProgressPercentage != 50 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("empty course avoids division by zero", func(t *testing.T) {
		svc := NewProgressService(&mockProgressRepo{}, &mockLessonCounter{}, testImages())

		stats, err := svc.GetCourseStats(context.Background(), "u", "c")
		if err != nil {
			t.Fatalf("GetCourseStats: %v", err)
		}
		if stats.ProgressPercentage != 0 {
			t.Errorf("percentage = %d, want 0 for empty course", stats.ProgressPercentage)
		}
	})
}
