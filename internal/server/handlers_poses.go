package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jonathan/pose-coach/internal/db"
	"github.com/jonathan/pose-coach/internal/logger"
	"github.com/jonathan/pose-coach/internal/schemas"
	"github.com/jonathan/pose-coach/internal/server/middleware"
	"github.com/jonathan/pose-coach/internal/types"
)

// maxPoseBody bounds pose document uploads.
const maxPoseBody = 1 << 20

// ListPosesResponse is the body of GET /poses.
type ListPosesResponse struct {
	Poses []types.Pose `json:"poses"`
	Count int          `json:"count"`
}

// handleListPoses lists the pose library, paginated with ?limit and ?offset
func (s *Server) handleListPoses(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	poses, err := s.store.ListPoses(r.Context(), db.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListPosesResponse{
		Poses: poses,
		Count: len(poses),
	})
}

// handleGetPose returns one pose by ID or slug
func (s *Server) handleGetPose(w http.ResponseWriter, r *http.Request) {
	pose, err := s.lookupPose(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pose)
}

// handleCreatePose adds a pose document to the library
func (s *Server) handleCreatePose(w http.ResponseWriter, r *http.Request) {
	doc, err := readPoseDocument(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.store.CreatePose(r.Context(), doc.Pose())
	if err != nil {
		writeError(w, err)
		return
	}

	author, _ := middleware.GetAuthor(r)
	slog.InfoContext(poseContext(r, created), "pose created", "author", author, "rules", len(created.Config))
	w.Header().Set("Location", "/poses/"+created.ID.String())
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdatePose replaces a pose's metadata and rules
func (s *Server) handleUpdatePose(w http.ResponseWriter, r *http.Request) {
	existing, err := s.lookupPose(r)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := readPoseDocument(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.store.UpdatePose(r.Context(), existing.ID, doc.Pose())
	if err != nil {
		writeError(w, err)
		return
	}

	author, _ := middleware.GetAuthor(r)
	slog.InfoContext(poseContext(r, updated), "pose updated", "author", author)
	writeJSON(w, http.StatusOK, updated)
}

// handleDeletePose removes a pose from the library
func (s *Server) handleDeletePose(w http.ResponseWriter, r *http.Request) {
	existing, err := s.lookupPose(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.DeletePose(r.Context(), existing.ID); err != nil {
		writeError(w, err)
		return
	}

	author, _ := middleware.GetAuthor(r)
	slog.InfoContext(poseContext(r, existing), "pose deleted", "author", author)
	w.WriteHeader(http.StatusNoContent)
}

// lookupPose resolves the {id} path value, which may be a UUID or a slug.
func (s *Server) lookupPose(r *http.Request) (*types.Pose, error) {
	ref := r.PathValue("id")
	if ref == "" {
		return nil, &ErrValidation{Field: "id", Message: "pose ID or slug is required"}
	}

	pose, err := s.store.GetPose(r.Context(), ref)
	if err != nil {
		return nil, err
	}
	if pose == nil {
		return nil, &ErrPoseNotFound{Ref: ref}
	}
	return pose, nil
}

// readPoseDocument reads and validates a pose document request body.
func readPoseDocument(w http.ResponseWriter, r *http.Request) (*types.PoseDocument, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPoseBody))
	if err != nil {
		return nil, &ErrValidation{Field: "body", Message: "request body too large or unreadable"}
	}

	doc, err := schemas.ValidatePoseDocument(body)
	if err != nil {
		var schemaErr *schemas.ValidationError
		if errors.As(err, &schemaErr) {
			return nil, err
		}
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	return doc, nil
}

func poseContext(r *http.Request, pose *types.Pose) context.Context {
	return logger.WithLogFields(r.Context(), logger.LogFields{PoseID: logger.Ptr(pose.Slug)})
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &ErrValidation{Field: name, Message: fmt.Sprintf("must be a non-negative integer, got %q", raw)}
	}
	return n, nil
}
