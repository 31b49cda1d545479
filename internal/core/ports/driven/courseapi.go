package driven

import (
	"context"
	"io"

	"github.com/Schneison/unima/internal/core/domain"
)

// CourseAPI is the remote course web service.
type CourseAPI interface {
	// SiteInfo returns information about the authenticated user.
	SiteInfo(ctx context.Context) (*domain.SiteInfo, error)

	// EnrolledCourses lists the courses the user is enrolled in.
	EnrolledCourses(ctx context.Context, userID int64) ([]domain.Course, error)

	// Categories returns the categories with the given IDs.
	Categories(ctx context.Context, ids []int64) ([]domain.Category, error)

	// CourseContents returns the section tree of a course.
	CourseContents(ctx context.Context, courseID int64) ([]domain.ContentSection, error)

	// DataEntries returns the entries of a database module instance.
	DataEntries(ctx context.Context, databaseID int64) (*domain.DataEntries, error)

	// Assignments returns the assignments of the given courses.
	Assignments(ctx context.Context, courseIDs []int64) (*domain.AssignmentList, error)
}

// Downloader fetches a remote file.
type Downloader interface {
	// Download streams the file at url into w and returns its content type.
	Download(ctx context.Context, url string, w io.Writer) (string, error)
}
