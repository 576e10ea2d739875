// Package attach provides the default attachment step: applying an
// association's transform to a datastream so it carries the object's
// canonical handle URL.
package attach

import (
	"context"

	"github.com/beevik/etree"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"islandora-handle-backend/internal/dc"
	"islandora-handle-backend/internal/domain/models"
	"islandora-handle-backend/internal/domain/ports"
)

// Transform names understood by this attacher. They match the stylesheet
// names historically used for handle embedding so existing association
// configuration keeps working.
const (
	TransformDC   = "add_hdl_to_dc.xsl"
	TransformMODS = "add_hdl_to_mods.xsl"
)

const modsNamespace = "http://www.loc.gov/mods/v3"

// Attacher embeds handle references into XML datastreams
type Attacher struct {
	handles ports.HandleService
	logger  logr.Logger
}

// Compile-time check that Attacher implements ports.DatastreamAttacher
var _ ports.DatastreamAttacher = (*Attacher)(nil)

// NewAttacher creates a new attacher
func NewAttacher(handles ports.HandleService, logger logr.Logger) *Attacher {
	return &Attacher{handles: handles, logger: logger}
}

// Attach applies the named transform to the datastream, embedding the
// object's canonical handle URL. The edit is idempotent: a datastream that
// already carries the canonical URL is left untouched and still reported
// as success.
func (a *Attacher) Attach(ctx context.Context, obj ports.RepositoryObject, dsid, transform string) models.Result {
	stream, err := obj.Datastream(dsid)
	if err != nil {
		return models.FailureResult(models.NewOperationalError(
			"Unable to read datastream @dsid of @pid: @error",
			map[string]string{"@pid": obj.ID(), "@dsid": dsid, "@error": err.Error()},
		))
	}
	content, err := stream.Content(ctx)
	if err != nil {
		return models.FailureResult(models.NewOperationalError(
			"Unable to read datastream @dsid of @pid: @error",
			map[string]string{"@pid": obj.ID(), "@dsid": dsid, "@error": err.Error()},
		))
	}

	handleURL := a.handles.CanonicalURL(obj.ID())

	var (
		updated []byte
		changed bool
	)
	switch transform {
	case TransformDC:
		updated, changed, err = applyDC(content, handleURL)
	case TransformMODS:
		updated, changed, err = applyMODS(content, handleURL)
	default:
		return models.FailureResult(models.NewOperationalError(
			"Unknown handle transform @transform configured for @pid.",
			map[string]string{"@pid": obj.ID(), "@transform": transform},
		))
	}
	if err != nil {
		return models.FailureResult(models.NewOperationalError(
			"Unable to apply transform @transform to @dsid of @pid: @error",
			map[string]string{"@pid": obj.ID(), "@dsid": dsid, "@transform": transform, "@error": err.Error()},
		))
	}

	if changed {
		if err := stream.SetContent(ctx, updated); err != nil {
			return models.FailureResult(models.NewOperationalError(
				"Unable to write datastream @dsid of @pid: @error",
				map[string]string{"@pid": obj.ID(), "@dsid": dsid, "@error": err.Error()},
			))
		}
		a.logger.V(1).Info("attached handle", "pid", obj.ID(), "dsid", dsid, "transform", transform)
	}

	return models.Result{
		Success: true,
		Messages: []models.Message{models.NewUserNotice(
			"Added handle to @dsid of @pid.",
			map[string]string{"@pid": obj.ID(), "@dsid": dsid},
		)},
	}
}

func applyDC(content []byte, handleURL string) ([]byte, bool, error) {
	doc, err := dc.Parse(content)
	if err != nil {
		return nil, false, err
	}
	if !doc.SetHandleIdentifier(handleURL) {
		return nil, false, nil
	}
	out, err := doc.Bytes()
	return out, true, err
}

// applyMODS ensures the MODS record carries exactly one
// mods:identifier[@type="hdl"] holding the canonical URL.
func applyMODS(content []byte, handleURL string) ([]byte, bool, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, false, errors.Wrap(err, "parse MODS record")
	}
	root := doc.Root()
	if root == nil || root.Tag != "mods" {
		return nil, false, errors.New("MODS record has no mods root element")
	}

	for _, el := range root.ChildElements() {
		if el.Tag != "identifier" || el.NamespaceURI() != modsNamespace {
			continue
		}
		if el.SelectAttrValue("type", "") != "hdl" {
			continue
		}
		if el.Text() == handleURL {
			return nil, false, nil
		}
		el.SetText(handleURL)
		return serialize(doc)
	}

	tag := "identifier"
	if root.Space != "" {
		tag = root.Space + ":identifier"
	}
	el := etree.NewElement(tag)
	el.CreateAttr("type", "hdl")
	el.SetText(handleURL)
	root.AddChild(el)
	return serialize(doc)
}

func serialize(doc *etree.Document) ([]byte, bool, error) {
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, false, errors.Wrap(err, "serialize MODS record")
	}
	return out, true, nil
}
