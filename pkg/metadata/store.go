// Package metadata serves image plane, pixel and instance metadata for the
// images annotations reference. Images are loaded from DICOM files or from
// datasets already in memory.
package metadata

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/jpfielding/dicomsr.go/pkg/annotation"
	"github.com/jpfielding/dicomsr.go/pkg/dicom"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"
)

// FileScheme prefixes the image ids of files loaded from disk
const FileScheme = "dicomfile:"

// FileImageID is the image id of a file, with the frame for multi-frame instances
func FileImageID(path string, frame int) string {
	return FrameImageID(FileScheme+path, frame)
}

// FrameImageID addresses one frame of a multi-frame image; frame 0 is the whole image
func FrameImageID(base string, frame int) string {
	if frame <= 0 {
		return base
	}
	return base + "?frame=" + strconv.Itoa(frame)
}

type image struct {
	plane    *annotation.ImagePlane
	pixel    annotation.ImagePixel
	instance annotation.Instance
}

// Store is an in-memory MetadataProvider safe for concurrent loading
type Store struct {
	mu     sync.RWMutex
	images map[string]*image
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{images: map[string]*image{}}
}

// add registers every frame of an instance and returns the image ids
func (s *Store) add(base string, a *attributes) []string {
	frames := max(a.frames, 1)
	multi := frames > 1 || dicom.IsMultiframeSOPClass(a.sopClass)
	var ids []string

	s.mu.Lock()
	defer s.mu.Unlock()
	for f := 1; f <= frames; f++ {
		id, frame := base, 0
		if multi {
			id, frame = FrameImageID(base, f), f
		}
		img := &image{
			plane: a.plane(),
			pixel: annotation.ImagePixel{Rows: a.rows, Columns: a.columns},
			instance: annotation.Instance{
				SOPClassUID:       a.sopClass,
				SOPInstanceUID:    a.sop,
				SeriesInstanceUID: a.series,
				StudyInstanceUID:  a.study,
				NumberOfFrames:    frames,
				FrameNumber:       frame,
				Patient:           a.patient,
				Study:             a.studyModule,
			},
		}
		s.images[id] = img
		ids = append(ids, id)
	}
	return ids
}

// Load parses a DICOM stream of size bytes and registers it under base
func (s *Store) Load(in io.Reader, size int64, base string) ([]string, error) {
	a, err := parseAttributes(in, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", base, err)
	}
	if a.sop == "" {
		return nil, fmt.Errorf("%s: no SOP instance UID", base)
	}
	return s.add(base, a), nil
}

// LoadFile parses a DICOM file, registered as dicomfile:<path>
func (s *Store) LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return s.Load(f, st.Size(), FileScheme+path)
}

// LoadFiles parses files in parallel. Directories are walked for files.
func (s *Store) LoadFiles(ctx context.Context, paths ...string) ([]string, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	var mu sync.Mutex
	var ids []string
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			loaded, err := s.LoadFile(path)
			if err != nil {
				return err
			}
			slog.DebugContext(ctx, "loaded image metadata", "path", path, "images", len(loaded))
			mu.Lock()
			ids = append(ids, loaded...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

func expand(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// AddDataset registers a dataset already in memory under base
func (s *Store) AddDataset(base string, ds *dicom.Dataset) ([]string, error) {
	a := datasetAttributes(ds)
	if a.sop == "" {
		return nil, fmt.Errorf("%s: no SOP instance UID", base)
	}
	return s.add(base, a), nil
}

// SOPMap maps referenced SOP instances and frames back to loaded image ids
func (s *Store) SOPMap() *annotation.SOPMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := annotation.NewSOPMap()
	for id, img := range s.images {
		out.Add(img.instance.SOPInstanceUID, img.instance.FrameNumber, id)
	}
	return out
}

// ImageIDs lists the loaded images in sorted order
func (s *Store) ImageIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.images))
	for id := range s.images {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Store) get(id string) (*image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	return img, ok
}

func (s *Store) ImagePlane(id string) (*annotation.ImagePlane, bool) {
	img, ok := s.get(id)
	if !ok || img.plane == nil {
		return nil, false
	}
	p := *img.plane
	return &p, true
}

func (s *Store) ImagePixel(id string) (*annotation.ImagePixel, bool) {
	img, ok := s.get(id)
	if !ok {
		return nil, false
	}
	p := img.pixel
	return &p, true
}

func (s *Store) Instance(id string) (*annotation.Instance, bool) {
	img, ok := s.get(id)
	if !ok {
		return nil, false
	}
	inst := img.instance
	return &inst, true
}

var _ annotation.MetadataProvider = (*Store)(nil)

// plane is nil without a complete position, orientation and spacing
func (a *attributes) plane() *annotation.ImagePlane {
	if len(a.position) != 3 || len(a.orientation) != 6 || len(a.spacing) != 2 {
		return nil
	}
	return &annotation.ImagePlane{
		FrameOfReferenceUID:  a.frameOfReference,
		ImagePositionPatient: r3.Vec{X: a.position[0], Y: a.position[1], Z: a.position[2]},
		RowCosines:           r3.Vec{X: a.orientation[0], Y: a.orientation[1], Z: a.orientation[2]},
		ColumnCosines:        r3.Vec{X: a.orientation[3], Y: a.orientation[4], Z: a.orientation[5]},
		RowPixelSpacing:      a.spacing[0],
		ColumnPixelSpacing:   a.spacing[1],
		Rows:                 a.rows,
		Columns:              a.columns,
	}
}
