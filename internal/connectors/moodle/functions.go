package moodle

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
)

// Web service functions used by the client.
const (
	FuncSiteInfo        = "core_webservice_get_site_info"
	FuncCourseContents  = "core_course_get_contents"
	FuncCategories      = "core_course_get_categories"
	FuncAssignments     = "mod_assign_get_assignments"
	FuncEnrolledCourses = "core_enrol_get_users_courses"
	FuncDataEntries     = "mod_data_get_entries"
)

// Ensure Client implements the interfaces.
var (
	_ driven.CourseAPI  = (*Client)(nil)
	_ driven.Downloader = (*Client)(nil)
)

// SiteInfo returns information about the authenticated user.
func (c *Client) SiteInfo(ctx context.Context) (*domain.SiteInfo, error) {
	var info domain.SiteInfo
	if err := c.Call(ctx, FuncSiteInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// EnrolledCourses lists the courses the user is enrolled in.
func (c *Client) EnrolledCourses(ctx context.Context, userID int64) ([]domain.Course, error) {
	var courses []domain.Course
	params := url.Values{"userid": {strconv.FormatInt(userID, 10)}}
	if err := c.Call(ctx, FuncEnrolledCourses, params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Categories returns the categories with the given IDs.
func (c *Client) Categories(ctx context.Context, ids []int64) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}
	params := url.Values{
		"criteria[0][key]":   {"ids"},
		"criteria[0][value]": {joinIDs(ids)},
	}
	var categories []domain.Category
	if err := c.Call(ctx, FuncCategories, params, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CourseContents returns the section tree of a course.
func (c *Client) CourseContents(ctx context.Context, courseID int64) ([]domain.ContentSection, error) {
	var sections []domain.ContentSection
	params := url.Values{"courseid": {strconv.FormatInt(courseID, 10)}}
	if err := c.Call(ctx, FuncCourseContents, params, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// DataEntries returns the entries of a database module instance.
func (c *Client) DataEntries(ctx context.Context, databaseID int64) (*domain.DataEntries, error) {
	var entries domain.DataEntries
	params := url.Values{
		"databaseid":     {strconv.FormatInt(databaseID, 10)},
		"returncontents": {"1"},
	}
	if err := c.Call(ctx, FuncDataEntries, params, &entries); err != nil {
		return nil, err
	}
	return &entries, nil
}

// Assignments returns the assignments of the given courses.
func (c *Client) Assignments(ctx context.Context, courseIDs []int64) (*domain.AssignmentList, error) {
	params := url.Values{}
	for i, id := range courseIDs {
		params.Set("courseids["+strconv.Itoa(i)+"]", strconv.FormatInt(id, 10))
	}
	var list domain.AssignmentList
	if err := c.Call(ctx, FuncAssignments, params, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
