package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Schneison/unima/internal/core/domain"
	"github.com/Schneison/unima/internal/core/ports/driven"
	"github.com/Schneison/unima/internal/core/ports/driving"
	"github.com/Schneison/unima/internal/logger"
)

// Ensure ContentEngine implements the interface.
var _ driving.ContentEngine = (*ContentEngine)(nil)

// Remote module names with special ingestion.
const (
	modResource   = "resource"
	modFolder     = "folder"
	modCollection = "data"
)

// contentTypeFile marks module contents that are downloadable files.
const contentTypeFile = "file"

// ContentEngine ingests remote courses into local storage.
//
// Every section is written in its own transaction. A failing module is
// logged and skipped; writes it issued before failing stay in the
// section transaction and are committed with its siblings.
type ContentEngine struct {
	api         driven.CourseAPI
	content     driven.ContentStore
	modules     driven.ModuleStore
	processes   *ProcessManager
	courseURL   func(courseID int64) string
	concurrency int
}

// NewContentEngine creates an engine. courseURL builds the page address
// of a course; concurrency bounds the sections ingested at once.
func NewContentEngine(
	api driven.CourseAPI,
	content driven.ContentStore,
	modules driven.ModuleStore,
	processes *ProcessManager,
	courseURL func(courseID int64) string,
	concurrency int,
) *ContentEngine {
	if concurrency <= 0 {
		concurrency = domain.DefaultIngestConcurrency
	}
	if processes == nil {
		processes = NewProcessManager()
	}
	return &ContentEngine{
		api:         api,
		content:     content,
		modules:     modules,
		processes:   processes,
		courseURL:   courseURL,
		concurrency: concurrency,
	}
}

// UpdateModuleContent runs Sync as a process.
func (e *ContentEngine) UpdateModuleContent(ctx context.Context, moduleID string) (domain.Process, <-chan error) {
	return e.processes.Run(ctx, domain.ProcessSync, func(ctx context.Context) error {
		return e.Sync(ctx, moduleID)
	})
}

// FindModules runs Detect as a process.
func (e *ContentEngine) FindModules(ctx context.Context) (domain.Process, <-chan error) {
	return e.processes.Run(ctx, domain.ProcessDetect, e.Detect)
}

// ==================== Ingestion ====================

// Sync ingests the sections and assignments of a module. Only failed
// section transactions are returned; item failures are logged.
func (e *ContentEngine) Sync(ctx context.Context, moduleID string) error {
	module, err := e.modules.Get(ctx, moduleID)
	if err != nil {
		return fmt.Errorf("get module %s: %w", moduleID, err)
	}

	sections, err := e.api.CourseContents(ctx, module.InternalID)
	if err != nil {
		return fmt.Errorf("fetch contents of %s: %w", moduleID, err)
	}
	logger.Info("Syncing %s: %d sections", module.Title, len(sections))
	defer logger.Elapsed("Sync of " + moduleID)()

	sectionErrs := make([]error, len(sections))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range sections {
		g.Go(func() error {
			if err := e.ingestSection(ctx, moduleID, &sections[i]); err != nil {
				logger.Warn("Section %d of %s: %v", sections[i].Section, moduleID, err)
				sectionErrs[i] = fmt.Errorf("section %d: %w", sections[i].Section, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(sections) != len(module.SectionTitles) {
		if err := e.updateCourse(ctx, module.InternalID, sections); err != nil {
			sectionErrs = append(sectionErrs, err)
		}
	}
	if err := e.fetchAssignments(ctx, module.InternalID, moduleID); err != nil {
		sectionErrs = append(sectionErrs, err)
	}
	return errors.Join(sectionErrs...)
}

// SyncAll syncs every configured module. A failing module does not stop
// the others.
func (e *ContentEngine) SyncAll(ctx context.Context) error {
	modules, err := e.modules.List(ctx)
	if err != nil {
		return fmt.Errorf("list modules: %w", err)
	}
	var errs []error
	for _, module := range modules {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Sync(ctx, module.ID); err != nil {
			errs = append(errs, fmt.Errorf("module %s: %w", module.ID, err))
		}
	}
	return errors.Join(errs...)
}

// ingestSection writes one section in a single transaction. Collection
// entries are fetched before the transaction is opened.
func (e *ContentEngine) ingestSection(ctx context.Context, moduleID string, section *domain.ContentSection) error {
	entries := e.fetchCollections(ctx, section)

	tx, err := e.content.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	logger.Debug("Start section %d of %s", section.Section, moduleID)
	var g errgroup.Group
	for i := range section.Modules {
		g.Go(func() error {
			mod := &section.Modules[i]
			if err := e.ingestModule(ctx, tx, moduleID, section.Section, i, mod, entries[mod.Instance]); err != nil {
				logger.Warn("Module %q (%d): %v", mod.Name, mod.ID, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := tx.Commit(); err != nil {
		return err
	}
	logger.Debug("Commit section %d of %s", section.Section, moduleID)
	return nil
}

// fetchCollections loads the entries of every collection module of a
// section, keyed by instance ID. Failed fetches are logged and omitted.
func (e *ContentEngine) fetchCollections(ctx context.Context, section *domain.ContentSection) map[int64]*domain.DataEntries {
	entries := make(map[int64]*domain.DataEntries)
	for _, mod := range section.Modules {
		if mod.ModName != modCollection {
			continue
		}
		data, err := e.api.DataEntries(ctx, mod.Instance)
		if err != nil {
			logger.Warn("Entries of collection %q: %v", mod.Name, err)
			continue
		}
		entries[mod.Instance] = data
	}
	return entries
}

func (e *ContentEngine) ingestModule(
	ctx context.Context,
	tx driven.ContentTx,
	moduleID string,
	sectionIndex, index int,
	mod *domain.ContentModule,
	entries *domain.DataEntries,
) error {
	url := mod.URL
	if url == "" {
		url = e.courseURL(mod.ID)
	}
	moodleID := mod.ID
	parentID, err := tx.SelectOrInsertSource(ctx, domain.Source{
		URL:      url,
		Module:   moduleID,
		Title:    html.UnescapeString(mod.Name),
		MoodleID: &moodleID,
		Type:     domain.LinkTypeFromModName(mod.ModName),
	})
	if err != nil {
		return err
	}
	if err := tx.UpdateSourceSection(ctx, parentID, domain.SectionData{SectionIndex: sectionIndex, Index: index}); err != nil {
		return err
	}

	switch mod.ModName {
	case modResource, modFolder:
		single := len(mod.Contents) == 1
		for i := range mod.Contents {
			if err := e.ingestContent(ctx, tx, moduleID, parentID, single, &mod.Contents[i]); err != nil {
				logger.Warn("File %q of %q: %v", mod.Contents[i].FileName, mod.Name, err)
			}
		}
	case modCollection:
		if entries == nil {
			return nil
		}
		for _, entry := range entries.Entries {
			for _, content := range entry.Contents {
				for _, file := range content.Files {
					t := domain.TimeData{Created: entry.TimeCreated, Modified: entry.TimeModified}
					if err := e.ingestAttachment(ctx, tx, moduleID, parentID, file, t); err != nil {
						logger.Warn("Entry file %q of %q: %v", file.FileName, mod.Name, err)
					}
				}
			}
		}
	}
	return nil
}

// ingestContent records one file of a resource or folder. A module with a
// single file is its own resource; otherwise each file gets a child source.
func (e *ContentEngine) ingestContent(
	ctx context.Context,
	tx driven.ContentTx,
	moduleID string,
	parentID int64,
	single bool,
	content *domain.ModuleContent,
) error {
	if content.Type != contentTypeFile {
		return nil
	}
	sourceID := parentID
	if !single {
		id, err := tx.SelectOrInsertSource(ctx, domain.Source{
			URL:    content.FileURL,
			Module: moduleID,
			Title:  content.FileName,
			Type:   domain.LinkResource,
		})
		if err != nil {
			return err
		}
		sourceID = id
	}
	if err := tx.InsertResource(ctx, newResource(sourceID, content.MimeType, content.FileName)); err != nil {
		return err
	}
	var created int64
	if content.TimeCreated != nil {
		created = *content.TimeCreated
	}
	if err := tx.UpdateSourceTime(ctx, sourceID, domain.TimeData{Created: created, Modified: content.TimeModified}); err != nil {
		return err
	}
	if !single {
		return tx.UpdateSourceParent(ctx, sourceID, parentID)
	}
	return nil
}

// ingestAttachment records a collection entry file or an assignment
// attachment as a child source of parentID.
func (e *ContentEngine) ingestAttachment(
	ctx context.Context,
	tx driven.ContentTx,
	moduleID string,
	parentID int64,
	file domain.EntryFile,
	t domain.TimeData,
) error {
	id, err := tx.SelectOrInsertSource(ctx, domain.Source{
		URL:    file.FileURL,
		Module: moduleID,
		Title:  file.FileName,
		Type:   domain.LinkResource,
	})
	if err != nil {
		return err
	}
	if err := tx.InsertResource(ctx, newResource(id, file.MimeType, file.FileName)); err != nil {
		return err
	}
	if err := tx.UpdateSourceTime(ctx, id, t); err != nil {
		return err
	}
	return tx.UpdateSourceParent(ctx, id, parentID)
}

func newResource(sourceID int64, mimeType, fileName string) domain.ResourceInfo {
	return domain.ResourceInfo{
		SourceID: sourceID,
		Type:     domain.ResourceType(mimeType),
		FileName: fileName,
		Marked:   true,
	}
}

// updateCourse refreshes the cached section titles of a course.
func (e *ContentEngine) updateCourse(ctx context.Context, courseID int64, sections []domain.ContentSection) error {
	tx, err := e.content.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := tx.UpdateSectionTitles(ctx, courseID, sectionTitles(sections)); err != nil {
		return err
	}
	return tx.Commit()
}

// fetchAssignments attaches the intro files of every assignment of the
// course to the source of the assignment.
func (e *ContentEngine) fetchAssignments(ctx context.Context, courseID int64, moduleID string) error {
	list, err := e.api.Assignments(ctx, []int64{courseID})
	if err != nil {
		return fmt.Errorf("fetch assignments: %w", err)
	}
	var course *domain.AssignmentCourse
	for i := range list.Courses {
		if list.Courses[i].ID == courseID {
			course = &list.Courses[i]
			break
		}
	}
	if course == nil {
		return nil
	}

	tx, err := e.content.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, assign := range course.Assignments {
		parent, err := tx.SourceByMoodleID(ctx, moduleID, assign.CMID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Assignment %q: %v", assign.Name, err)
			}
			continue
		}
		for _, file := range assign.IntroAttachments {
			t := domain.TimeData{Created: assign.AllowSubmissionsFromDate, Modified: file.TimeModified}
			if err := e.ingestAttachment(ctx, tx, moduleID, parent.ID, file, t); err != nil {
				logger.Warn("Attachment %q of %q: %v", file.FileName, assign.Name, err)
			}
		}
	}
	return tx.Commit()
}

// ==================== Detection ====================

// Detect stages every enrolled course, grouped by category, for the
// user to confirm.
func (e *ContentEngine) Detect(ctx context.Context) error {
	info, err := e.api.SiteInfo(ctx)
	if err != nil {
		return fmt.Errorf("site info: %w", err)
	}
	courses, err := e.api.EnrolledCourses(ctx, info.UserID)
	if err != nil {
		return fmt.Errorf("enrolled courses: %w", err)
	}
	if len(courses) == 0 {
		return nil
	}

	seen := make(map[int64]bool)
	ids := make([]int64, 0, len(courses))
	for _, c := range courses {
		if !seen[c.Category] {
			seen[c.Category] = true
			ids = append(ids, c.Category)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	categories, err := e.api.Categories(ctx, ids)
	if err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	byID := make(map[int64]domain.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	var errs []error
	for _, course := range courses {
		category, ok := byID[course.Category]
		if !ok {
			logger.Warn("Course %d: category %d not found", course.ID, course.Category)
			continue
		}
		if err := e.detectCourse(ctx, category, course); err != nil {
			logger.Warn("Course %d: %v", course.ID, err)
			errs = append(errs, fmt.Errorf("course %d: %w", course.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (e *ContentEngine) detectCourse(ctx context.Context, category domain.Category, course domain.Course) error {
	sections, err := e.api.CourseContents(ctx, course.ID)
	if err != nil {
		return err
	}

	tx, err := e.content.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	vesselID, err := tx.InsertDetectedVessel(ctx, html.UnescapeString(category.Name))
	if err != nil {
		return err
	}
	err = tx.InsertDetectedModule(ctx, domain.DetectedModule{
		ModuleInternal: course.ID,
		VesselID:       vesselID,
		URL:            e.courseURL(course.ID),
		Title:          html.UnescapeString(course.DisplayName),
		Marked:         true,
		SectionTitles:  sectionTitles(sections),
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// sectionTitles decodes the titles of the given sections.
func sectionTitles(sections []domain.ContentSection) []domain.SectionTitle {
	titles := make([]domain.SectionTitle, len(sections))
	for i, s := range sections {
		titles[i] = domain.SectionTitle{Index: s.Section, Title: html.UnescapeString(s.Name)}
	}
	return titles
}
