package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

// EditorState tracks the lifecycle of a save submission.
type EditorState string

const (
	EditorIdle             EditorState = "idle"
	EditorValidating       EditorState = "validating"
	EditorUploadingPrimary EditorState = "uploading_primary"
	EditorUploadingGallery EditorState = "uploading_gallery"
	EditorPersisting       EditorState = "persisting"
	EditorSucceeded        EditorState = "succeeded"
	EditorFailed           EditorState = "failed"
)

const (
	msgProductCreated = "Producto agregado correctamente."
	msgProductUpdated = "Producto actualizado correctamente."
	msgProductFailed  = "Error guardando el producto."
)

var (
	errEditorCatalogRequired = errors.New("product editor: catalog service is required")
	errEditorImagesRequired  = errors.New("product editor: image service is required")
)

// ErrEditorBusy indicates a save is already in flight. Submissions are
// single-flight: the second caller is rejected, never queued.
var ErrEditorBusy = errors.New("product editor: save in progress")

// ErrEditorInvalidInput indicates the submission failed validation.
var ErrEditorInvalidInput = errors.New("product editor: invalid input")

// SaveCommand describes one editor submission. An empty ProductID creates a
// new product; otherwise the existing product is updated in place.
type SaveCommand struct {
	ProductID    string
	Input        ProductInput
	PrimaryImage *ImageFile
	Gallery      *GalleryEditor
}

// SaveResult reports the outcome of a completed submission.
type SaveResult struct {
	SubmissionID string
	ProductID    string
	Created      bool
	Message      string
	ImageURL     string
	Gallery      []string
}

// ProductEditorDeps wires the collaborating services for the editing workflow.
type ProductEditorDeps struct {
	Catalog     CatalogService
	Images      ImageService
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
	OnState     func(EditorState)
}

// ProductEditor drives the save pipeline for the admin product form:
// validate, upload the primary image, upload pending gallery images in
// order, then persist the product document.
type ProductEditor struct {
	catalog CatalogService
	images  ImageService
	now     func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
	onState func(EditorState)

	saving atomic.Bool

	mu    sync.Mutex
	state EditorState
}

// NewProductEditor constructs a ProductEditor enforcing dependency validation.
func NewProductEditor(deps ProductEditorDeps) (*ProductEditor, error) {
	if deps.Catalog == nil {
		return nil, errEditorCatalogRequired
	}
	if deps.Images == nil {
		return nil, errEditorImagesRequired
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	onState := deps.OnState
	if onState == nil {
		onState = func(EditorState) {}
	}

	return &ProductEditor{
		catalog: deps.Catalog,
		images:  deps.Images,
		now:     func() time.Time { return clock().UTC() },
		newID:   idGen,
		logger:  logger,
		onState: onState,
		state:   EditorIdle,
	}, nil
}

// State returns the editor's current lifecycle state.
func (e *ProductEditor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Save runs one submission end to end. A submission already in flight
// rejects further calls with ErrEditorBusy until it completes.
func (e *ProductEditor) Save(ctx context.Context, cmd SaveCommand) (SaveResult, error) {
	if e == nil || e.catalog == nil || e.images == nil {
		return SaveResult{}, errEditorCatalogRequired
	}
	if !e.saving.CompareAndSwap(false, true) {
		return SaveResult{}, ErrEditorBusy
	}
	defer e.saving.Store(false)

	submissionID := e.newID()
	result := SaveResult{SubmissionID: submissionID}

	fail := func(err error) (SaveResult, error) {
		e.setState(EditorFailed)
		e.logger(ctx, "editor.save.failed", map[string]any{
			"submission_id": submissionID,
			"product_id":    strings.TrimSpace(cmd.ProductID),
			"error":         err.Error(),
		})
		result.Message = msgProductFailed
		e.setState(EditorIdle)
		return result, err
	}

	e.setState(EditorValidating)
	if err := e.validate(cmd); err != nil {
		return fail(err)
	}

	input := cmd.Input

	if cmd.PrimaryImage != nil {
		e.setState(EditorUploadingPrimary)
		url, err := e.images.UploadProductImage(ctx, *cmd.PrimaryImage)
		if err != nil {
			return fail(err)
		}
		input.Imagen = &url
		result.ImageURL = url
	}

	// Without a gallery in the submission the stored addresses stay as they
	// are; the input's imagenes field is only written when it was submitted.
	if cmd.Gallery != nil {
		gallery := cmd.Gallery.Persisted()
		pending := cmd.Gallery.Pending()
		if len(pending) > 0 {
			e.setState(EditorUploadingGallery)
			urls, err := e.images.UploadGallery(ctx, pending)
			if err != nil {
				return fail(err)
			}
			gallery = append(gallery, urls...)
		}
		input.Imagenes = gallery
		result.Gallery = gallery
	} else if input.Imagenes != nil {
		result.Gallery = snapshotStrings(input.Imagenes)
	}

	e.setState(EditorPersisting)
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		id, err := e.catalog.CreateProduct(ctx, input)
		if err != nil {
			return fail(err)
		}
		result.ProductID = id
		result.Created = true
		result.Message = msgProductCreated
	} else {
		if err := e.catalog.UpdateProduct(ctx, productID, input); err != nil {
			return fail(err)
		}
		result.ProductID = productID
		result.Message = msgProductUpdated
	}

	e.setState(EditorSucceeded)
	e.logger(ctx, "editor.save.succeeded", map[string]any{
		"submission_id": submissionID,
		"product_id":    result.ProductID,
		"created":       result.Created,
	})
	e.setState(EditorIdle)
	return result, nil
}

func (e *ProductEditor) validate(cmd SaveCommand) error {
	creating := strings.TrimSpace(cmd.ProductID) == ""
	if cmd.Input.Nombre != nil && strings.TrimSpace(*cmd.Input.Nombre) == "" {
		return fmt.Errorf("%w: nombre is required", ErrEditorInvalidInput)
	}
	if creating && cmd.Input.Nombre == nil {
		return fmt.Errorf("%w: nombre is required", ErrEditorInvalidInput)
	}
	if cmd.Input.Precio != nil && *cmd.Input.Precio < 0 {
		return fmt.Errorf("%w: precio and stock must not be negative", ErrEditorInvalidInput)
	}
	if cmd.Input.Stock != nil && *cmd.Input.Stock < 0 {
		return fmt.Errorf("%w: precio and stock must not be negative", ErrEditorInvalidInput)
	}
	// New products need a primary image, either freshly picked or carried
	// over on the input.
	if creating && cmd.PrimaryImage == nil && (cmd.Input.Imagen == nil || strings.TrimSpace(*cmd.Input.Imagen) == "") {
		return fmt.Errorf("%w: primary image is required", ErrEditorInvalidInput)
	}
	if cmd.PrimaryImage != nil {
		if _, err := e.images.Validate(cmd.PrimaryImage.Name, cmd.PrimaryImage.Data); err != nil {
			return err
		}
	}
	if cmd.Gallery != nil {
		for _, file := range cmd.Gallery.Pending() {
			if _, err := e.images.Validate(file.Name, file.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *ProductEditor) setState(state EditorState) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
	e.onState(state)
}

func snapshotStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
