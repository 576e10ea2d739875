package services

import (
	"context"
	"net/http"

	"github.com/go-logr/logr"

	"islandora-handle-backend/internal/dc"
	"islandora-handle-backend/internal/domain/models"
	"islandora-handle-backend/internal/domain/ports"
)

// DCDatastreamID is the datastream holding an object's Dublin Core record.
const DCDatastreamID = "DC"

// HandleReconciler keeps an object's handle and its Dublin Core identifier
// in agreement: mint a handle when a configured datastream appears, reflect
// the canonical URL into DC, and retract both once no configured datastream
// remains. All three operations converge on repeat invocation because each
// one checks existing state before mutating anything; there is no per-pid
// locking, so genuinely concurrent triggers for the same object can still
// lose an update.
type HandleReconciler struct {
	handles      ports.HandleService
	associations ports.AssociationReader
	attacher     ports.DatastreamAttacher
	logger       logr.Logger
}

// NewHandleReconciler creates a reconciler over the given collaborators.
func NewHandleReconciler(handles ports.HandleService, associations ports.AssociationReader, attacher ports.DatastreamAttacher, logger logr.Logger) *HandleReconciler {
	return &HandleReconciler{
		handles:      handles,
		associations: associations,
		attacher:     attacher,
		logger:       logger,
	}
}

// EnsureHandleAndAttach mints a handle for the object if none exists, then
// attaches it to the datastream named by the hook. The first association
// matching the hook's destination datastream wins; associations for the
// object's other content models are ignored for this event. A hook that
// matches no association is a no-op reported as success.
func (r *HandleReconciler) EnsureHandleAndAttach(ctx context.Context, obj ports.RepositoryObject, hook models.DerivativeHook) models.Result {
	result := models.SuccessResult()

	exists, err := r.handles.Exists(ctx, obj.ID())
	if err != nil {
		return models.FailureResult(handleServiceUnreachable(obj.ID(), err))
	}
	if !exists {
		resp, err := r.handles.Create(ctx, obj.ID())
		if err != nil {
			return models.FailureResult(handleServiceUnreachable(obj.ID(), err))
		}
		if resp.Code != http.StatusCreated {
			return models.FailureResult(models.NewOperationalError(
				"Error constructing handle for @pid: @error",
				map[string]string{"@pid": obj.ID(), "@error": resp.Error},
			))
		}
		r.logger.V(1).Info("minted handle", "pid", obj.ID())
	}

	assocs, err := r.associations.AssociationsFor(ctx, obj.ContentModels())
	if err != nil {
		return models.FailureResult(models.NewOperationalError(
			"Error loading handle associations for @pid: @error",
			map[string]string{"@pid": obj.ID(), "@error": err.Error()},
		))
	}

	for _, assoc := range assocs {
		if assoc.DatastreamID != hook.DestinationDSID || !obj.Has(assoc.DatastreamID) {
			continue
		}
		attached := r.attacher.Attach(ctx, obj, assoc.DatastreamID, assoc.Transform)
		result.Merge(attached)
		break
	}

	return result
}

// SyncDublinCore reflects the canonical handle URL into the object's DC
// record. Both preconditions (handle minted, DC datastream present) are
// checked independently so a caller sees every violation in one pass. When
// the record already carries the canonical URL nothing is written and the
// result is an explicit empty success.
func (r *HandleReconciler) SyncDublinCore(ctx context.Context, obj ports.RepositoryObject) models.Result {
	exists, err := r.handles.Exists(ctx, obj.ID())
	if err != nil {
		return models.FailureResult(handleServiceUnreachable(obj.ID(), err))
	}

	var failures []models.Message
	if !exists {
		failures = append(failures, models.NewOperationalError(
			"Unable to update DC for @pid: no handle has been minted for it.",
			map[string]string{"@pid": obj.ID()},
		))
	}
	if !obj.Has(DCDatastreamID) {
		failures = append(failures, models.NewOperationalError(
			"Unable to update DC for @pid: it has no DC datastream.",
			map[string]string{"@pid": obj.ID()},
		))
	}
	if len(failures) > 0 {
		return models.Result{Success: false, Messages: failures}
	}

	stream, err := obj.Datastream(DCDatastreamID)
	if err != nil {
		return models.FailureResult(datastreamFailure(obj.ID(), DCDatastreamID, err))
	}
	content, err := stream.Content(ctx)
	if err != nil {
		return models.FailureResult(datastreamFailure(obj.ID(), DCDatastreamID, err))
	}
	doc, err := dc.Parse(content)
	if err != nil {
		return models.FailureResult(models.NewOperationalError(
			"Unable to parse DC datastream of @pid: @error",
			map[string]string{"@pid": obj.ID(), "@error": err.Error()},
		))
	}

	handleURL := r.handles.CanonicalURL(obj.ID())
	if !doc.SetHandleIdentifier(handleURL) {
		// Already canonical; skip the write.
		return models.SuccessResult()
	}

	updated, err := doc.Bytes()
	if err != nil {
		return models.FailureResult(datastreamFailure(obj.ID(), DCDatastreamID, err))
	}
	if err := stream.SetContent(ctx, updated); err != nil {
		return models.FailureResult(datastreamFailure(obj.ID(), DCDatastreamID, err))
	}
	r.logger.V(1).Info("updated DC handle identifier", "pid", obj.ID(), "handle", handleURL)
	return models.SuccessResult()
}

// RetractIfOrphaned deletes the object's handle and its DC identifier once
// none of the configured datastreams remain. An object with no handle, or
// with any associated datastream still present, is left alone.
func (r *HandleReconciler) RetractIfOrphaned(ctx context.Context, obj ports.RepositoryObject) models.Result {
	exists, err := r.handles.Exists(ctx, obj.ID())
	if err != nil {
		return models.FailureResult(handleServiceUnreachable(obj.ID(), err))
	}
	if !exists {
		return models.SuccessResult()
	}

	assocs, err := r.associations.AssociationsFor(ctx, obj.ContentModels())
	if err != nil {
		return models.FailureResult(models.NewOperationalError(
			"Error loading handle associations for @pid: @error",
			map[string]string{"@pid": obj.ID(), "@error": err.Error()},
		))
	}
	for _, assoc := range assocs {
		if obj.Has(assoc.DatastreamID) {
			// Handle still in use.
			return models.SuccessResult()
		}
	}

	if result, ok := r.removeDCIdentifier(ctx, obj); !ok {
		return result
	}

	resp, err := r.handles.Delete(ctx, obj.ID())
	if err != nil {
		return models.FailureResult(handleServiceUnreachable(obj.ID(), err))
	}
	// 500 means the handle was already gone server-side; both outcomes
	// leave the object without a handle.
	if resp.Code != http.StatusNoContent && resp.Code != http.StatusInternalServerError {
		return models.FailureResult(models.NewOperationalError(
			"Error deleting handle for @pid: @error",
			map[string]string{"@pid": obj.ID(), "@error": resp.Error},
		))
	}
	r.logger.V(1).Info("retracted handle", "pid", obj.ID())
	return models.SuccessResult()
}

// removeDCIdentifier drops the canonical handle identifier from the DC
// record, writing only when something was actually removed. The second
// return is false when the retraction must abort.
func (r *HandleReconciler) removeDCIdentifier(ctx context.Context, obj ports.RepositoryObject) (models.Result, bool) {
	if !obj.Has(DCDatastreamID) {
		return models.SuccessResult(), true
	}
	stream, err := obj.Datastream(DCDatastreamID)
	if err != nil {
		return models.FailureResult(datastreamFailure(obj.ID(), DCDatastreamID, err)), false
	}
	content, err := stream.Content(ctx)
	if err != nil {
		return models.FailureResult(datastreamFailure(obj.ID(), DCDatastreamID, err)), false
	}
	doc, err := dc.Parse(content)
	if err != nil {
		return models.FailureResult(models.NewOperationalError(
			"Unable to parse DC datastream of @pid: @error",
			map[string]string{"@pid": obj.ID(), "@error": err.Error()},
		)), false
	}
	if !doc.RemoveIdentifier(r.handles.CanonicalURL(obj.ID())) {
		return models.SuccessResult(), true
	}
	updated, err := doc.Bytes()
	if err != nil {
		return models.FailureResult(datastreamFailure(obj.ID(), DCDatastreamID, err)), false
	}
	if err := stream.SetContent(ctx, updated); err != nil {
		return models.FailureResult(datastreamFailure(obj.ID(), DCDatastreamID, err)), false
	}
	return models.SuccessResult(), true
}

func handleServiceUnreachable(pid string, err error) models.Message {
	return models.NewOperationalError(
		"Error communicating with the handle service for @pid: @error",
		map[string]string{"@pid": pid, "@error": err.Error()},
	)
}

func datastreamFailure(pid, dsid string, err error) models.Message {
	return models.NewOperationalError(
		"Error accessing datastream @dsid of @pid: @error",
		map[string]string{"@pid": pid, "@dsid": dsid, "@error": err.Error()},
	)
}
