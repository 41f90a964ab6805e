package index

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meghashyamc/facetsearch/db/kvdb"
	"github.com/meghashyamc/facetsearch/db/searchdb"
	"github.com/meghashyamc/facetsearch/logger"
	"golang.org/x/sync/errgroup"
)

// Indexer represents the search database operations needed for index writes
type Indexer interface {
	IndexDocuments(documents []searchdb.Document) error
	DeleteDocuments(projectIDs []int64) error
}

type Validator interface {
	Validate(i any) error
}

const (
	ProgressStatusStep1    = 10
	ProgressStatusStep2    = 20
	ProgressStatusComplete = 100
	ProgressStatusFailed   = -1

	maxConcurrentBatches = 8
	maxIndexBuildingTime = 2 * time.Hour
)

type Service struct {
	logger        logger.Logger
	indexer       Indexer
	metadataStore MetadataStore
	validator     Validator
	buildIndexC   chan indexRequest
	building      atomic.Bool

	// writeMu serializes single-project writes with snapshot rebuilds.
	writeMu sync.Mutex
}

type indexRequest struct {
	projects  []searchdb.Document
	requestID string
}

// BuildSummary counts what a snapshot rebuild did.
type BuildSummary struct {
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Invalid   int `json:"invalid"`
	Deleted   int `json:"deleted"`
}

func New(ctx context.Context, logger logger.Logger, indexer Indexer, metadataStore MetadataStore, validator Validator) *Service {
	indexService := &Service{
		logger:        logger,
		indexer:       indexer,
		metadataStore: metadataStore,
		validator:     validator,
		buildIndexC:   make(chan indexRequest, 1),
	}

	go indexService.build(ctx)
	return indexService
}

// Build queues a snapshot rebuild. Only one rebuild runs at a time.
func (s *Service) Build(projects []searchdb.Document, requestID string) error {

	if !s.building.CompareAndSwap(false, true) {
		s.logger.Warn("request to index while indexing is already in progress", "request_id", requestID)
		return ErrIndexingInProgress
	}

	s.setRequestStatus(requestID, 0)

	// This leads to s.Rebuild being called
	s.buildIndexC <- indexRequest{projects: projects, requestID: requestID}
	return nil
}

// GetStatus retrieves the progress status of a rebuild
func (s *Service) GetStatus(requestID string) (int, error) {
	value, err := s.metadataStore.Get(kvdb.RequestsBucket, requestID)
	if err != nil {
		if errors.Is(err, kvdb.ErrNotFound) {
			return 0, ErrRequestNotFound
		}
		return 0, fmt.Errorf("could not read request status: %w", err)
	}

	status, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid status value: %w", err)
	}

	return status, nil
}

// Upsert writes one whole project to the index.
func (s *Service) Upsert(project searchdb.Document) error {
	if err := s.validator.Validate(project); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	contentFingerprint, err := fingerprint(project)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.isUnchanged(project.ID, contentFingerprint) {
		s.logger.Debug("project unchanged, skipping", "project_id", project.ID)
		return nil
	}

	if err := s.indexer.IndexDocuments([]searchdb.Document{project}); err != nil {
		s.logger.Error("failed to index project", "project_id", project.ID, "err", err.Error())
		return fmt.Errorf("failed to index project %d: %w", project.ID, err)
	}

	return s.setProjectMetadata(project.ID, kvdb.ProjectMetadata{
		OwnerID:     project.OwnerID,
		Fingerprint: contentFingerprint,
		LastIndexed: time.Now().UTC(),
	})
}

// Delete removes a project from the index. Deleting an unknown project is not an error.
func (s *Service) Delete(projectID int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.removeProjects([]int64{projectID})
}

func (s *Service) build(ctx context.Context) {

	for {
		select {
		case req := <-s.buildIndexC:
			indexTimeoutCtx, cancel := context.WithTimeout(ctx, maxIndexBuildingTime)
			if _, err := s.Rebuild(indexTimeoutCtx, req.projects, req.requestID); err != nil {
				s.logger.Error("failed to rebuild index", "request_id", req.requestID, "err", err.Error())
			}
			cancel()
			s.building.Store(false)
		case <-ctx.Done():
			s.logger.Info("index service stopped", "reason", ctx.Err())
			return
		}
	}
}

// Rebuild makes the index match the given snapshot of all projects: changed
// projects are written, unchanged ones skipped and projects missing from the
// snapshot removed.
func (s *Service) Rebuild(ctx context.Context, projects []searchdb.Document, requestID string) (*BuildSummary, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.setRequestStatus(requestID, 0)
	summary := &BuildSummary{}

	changed, inSnapshot := s.getProjectsToIndex(projects, summary)

	// Update progress to ProgressStatusStep1% after the snapshot is validated
	s.setRequestStatus(requestID, ProgressStatusStep1)

	stale, err := s.getStaleProjects(inSnapshot)
	if err != nil {
		s.logger.Error("failed to rebuild index", "request_id", requestID, "err", err.Error())
		s.setRequestStatus(requestID, ProgressStatusFailed)
		return nil, err
	}

	if err := s.removeProjects(stale); err != nil {
		s.logger.Error("failed to rebuild index", "request_id", requestID, "err", err.Error())
		s.setRequestStatus(requestID, ProgressStatusFailed)
		return nil, err
	}
	summary.Deleted = len(stale)

	// Update progress to ProgressStatusStep2% after stale projects are removed
	s.setRequestStatus(requestID, ProgressStatusStep2)

	if err := s.indexInBatches(ctx, changed, requestID); err != nil {
		s.logger.Error("failed to rebuild index", "request_id", requestID, "err", err.Error())
		s.setRequestStatus(requestID, ProgressStatusFailed)
		return nil, err
	}
	summary.Indexed = len(changed)

	s.setRequestStatus(requestID, ProgressStatusComplete)
	s.logger.Info("rebuilt index", "request_id", requestID, "indexed", summary.Indexed, "unchanged", summary.Unchanged, "invalid", summary.Invalid, "deleted", summary.Deleted)

	return summary, nil
}

type fingerprintedProject struct {
	project     searchdb.Document
	fingerprint string
}

func (s *Service) getProjectsToIndex(projects []searchdb.Document, summary *BuildSummary) ([]fingerprintedProject, map[int64]struct{}) {
	inSnapshot := make(map[int64]struct{}, len(projects))
	latest := make(map[int64]int, len(projects))
	var order []int64

	// A project listed twice keeps its last version.
	for i, project := range projects {
		if _, seen := latest[project.ID]; !seen {
			order = append(order, project.ID)
		}
		latest[project.ID] = i
		if project.ID > 0 {
			inSnapshot[project.ID] = struct{}{}
		}
	}

	var changed []fingerprintedProject
	for _, projectID := range order {
		project := projects[latest[projectID]]
		if err := s.validator.Validate(project); err != nil {
			s.logger.Warn("skipping invalid project", "project_id", project.ID, "err", err.Error())
			summary.Invalid++
			continue
		}

		contentFingerprint, err := fingerprint(project)
		if err != nil {
			s.logger.Warn("skipping project", "project_id", project.ID, "err", err.Error())
			summary.Invalid++
			continue
		}

		if s.isUnchanged(project.ID, contentFingerprint) {
			summary.Unchanged++
			continue
		}
		changed = append(changed, fingerprintedProject{project: project, fingerprint: contentFingerprint})
	}

	return changed, inSnapshot
}

func (s *Service) getStaleProjects(inSnapshot map[int64]struct{}) ([]int64, error) {
	allKeys, err := s.metadataStore.GetAllKeys(kvdb.ProjectsBucket)
	if err != nil {
		s.logger.Error("failed to get all keys from database", "err", err.Error())
		return nil, fmt.Errorf("failed to get all keys from database: %w", err)
	}

	var stale []int64
	for _, key := range allKeys {
		projectID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			s.logger.Warn("ignoring malformed project key", "key", key)
			continue
		}
		if _, ok := inSnapshot[projectID]; !ok {
			stale = append(stale, projectID)
		}
	}

	return stale, nil
}

func (s *Service) removeProjects(projectIDs []int64) error {
	if len(projectIDs) == 0 {
		return nil
	}
	s.logger.Info("removing projects from index", "count", len(projectIDs))
	if err := s.indexer.DeleteDocuments(projectIDs); err != nil {
		s.logger.Error("failed to delete documents from search index", "err", err.Error())
		return fmt.Errorf("failed to delete documents from search index: %w", err)
	}

	for _, projectID := range projectIDs {
		if err := s.metadataStore.Delete(kvdb.ProjectsBucket, searchdb.DocumentID(projectID)); err != nil {
			s.logger.Error("failed to delete project metadata", "project_id", projectID, "err", err.Error())
		}
	}
	return nil
}

func (s *Service) indexInBatches(ctx context.Context, changed []fingerprintedProject, requestID string) error {
	if len(changed) == 0 {
		s.logger.Info("no projects to index")
		return nil
	}

	indexTime := time.Now().UTC()
	var indexedCount atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)

	for start := 0; start < len(changed); start += searchdb.IndexingBatchSize {
		batch := changed[start:min(start+searchdb.IndexingBatchSize, len(changed))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.indexBatch(batch, indexTime); err != nil {
				return err
			}

			done := indexedCount.Add(int64(len(batch)))
			s.setRequestStatus(requestID, getProgressPercentage(int(done), len(changed), ProgressStatusStep2, ProgressStatusComplete-1))
			return nil
		})
	}

	return g.Wait()
}

func (s *Service) indexBatch(batch []fingerprintedProject, indexTime time.Time) error {
	documents := make([]searchdb.Document, 0, len(batch))
	for _, item := range batch {
		documents = append(documents, item.project)
	}

	if err := s.indexer.IndexDocuments(documents); err != nil {
		s.logger.Error("failed to index batch", "size", len(documents), "err", err.Error())
		return fmt.Errorf("failed to index batch: %w", err)
	}

	// Metadata is what lets later rebuilds skip these projects.
	for _, item := range batch {
		metadata := kvdb.ProjectMetadata{
			OwnerID:     item.project.OwnerID,
			Fingerprint: item.fingerprint,
			LastIndexed: indexTime,
		}
		if err := s.setProjectMetadata(item.project.ID, metadata); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) setRequestStatus(requestID string, status int) {
	if requestID == "" {
		return
	}
	if err := s.metadataStore.Set(kvdb.RequestsBucket, requestID, strconv.Itoa(status)); err != nil {
		s.logger.Error("failed to update request status", "request_id", requestID, "progress", status, "err", err.Error())
	}
}

func getProgressPercentage(done int, total int, initial int, final int) int {
	if done == 0 || total == 0 {
		return initial
	}

	if done >= total {
		return final
	}

	// Calculate the percentage between initial and final
	progress := float64(done) / float64(total)
	result := float64(initial) + progress*float64(final-initial)

	return int(result)

}
