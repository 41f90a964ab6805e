package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meghashyamc/facetsearch/db/kvdb"
	"github.com/meghashyamc/facetsearch/db/searchdb"
)

// fingerprint identifies the indexed content of a project; two documents with
// the same fingerprint produce the same index entry.
func fingerprint(project searchdb.Document) (string, error) {
	data, err := json.Marshal(project)
	if err != nil {
		return "", fmt.Errorf("failed to encode project %d: %w", project.ID, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (s *Service) setProjectMetadata(projectID int64, metadata kvdb.ProjectMetadata) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		s.logger.Error("failed to marshal metadata", "project_id", projectID, "err", err.Error())
		return fmt.Errorf("failed to marshal metadata for project %d: %w", projectID, err)
	}

	if err := s.metadataStore.Set(kvdb.ProjectsBucket, searchdb.DocumentID(projectID), string(data)); err != nil {
		s.logger.Error("failed to set project metadata", "project_id", projectID, "err", err.Error())
		return err
	}

	return nil
}

func (s *Service) getProjectMetadata(projectID int64) (*kvdb.ProjectMetadata, error) {

	value, err := s.metadataStore.Get(kvdb.ProjectsBucket, searchdb.DocumentID(projectID))
	if err != nil {
		return nil, err
	}

	var metadata kvdb.ProjectMetadata
	if err := json.Unmarshal([]byte(value), &metadata); err != nil {
		s.logger.Error("failed to unmarshal metadata", "project_id", projectID, "err", err.Error())
		return nil, fmt.Errorf("failed to unmarshal metadata for project %d: %w", projectID, err)
	}

	return &metadata, nil
}

// isUnchanged reports whether the index already holds exactly this content.
// Any metadata lookup failure counts as changed so the project gets reindexed.
func (s *Service) isUnchanged(projectID int64, contentFingerprint string) bool {
	metadata, err := s.getProjectMetadata(projectID)
	if err != nil {
		if !errors.Is(err, kvdb.ErrNotFound) {
			s.logger.Error("failed to get metadata", "project_id", projectID, "err", err.Error())
		}
		return false
	}

	return metadata.Fingerprint == contentFingerprint
}
