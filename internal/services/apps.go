package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/appear/aiq/internal/core"
	"github.com/appear/aiq/internal/packager"
	"github.com/appear/aiq/internal/rest"
)

// SendParams override manifest values for register and update. Empty strings
// keep what the manifest says.
type SendParams struct {
	Path     string
	Name     string
	APILevel string
	Mock     string
	Global   bool
}

// SendResult identifies the published application.
type SendResult struct {
	ID   core.ID `json:"id"`
	Name string  `json:"name"`
}

// Application is a registered application as listed by the platform. Fields
// the client does not use are kept in Extra and written back on output.
type Application struct {
	ID         core.ID  `json:"_id"`
	Name       string   `json:"name"`
	SolutionID core.ID  `json:"solutionId,omitzero"`
	Solution   Solution `json:"solution"`

	Extra map[string]json.RawMessage `json:"-"`
}

var applicationKeys = []string{"_id", "name", "solutionId", "solution"}

type applicationFields Application

func (a *Application) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*applicationFields)(a)); err != nil {
		return err
	}
	extra, err := core.SplitExtra(data, applicationKeys)
	if err != nil {
		return err
	}
	a.Extra = extra
	return nil
}

func (a Application) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(applicationFields(a))
	if err != nil {
		return nil, err
	}
	return core.MergeExtra(data, a.Extra)
}

type sendResponse struct {
	ID core.ID `json:"_id"`
}

// RegisterApp publishes the application folder as a new application.
func (s *Services) RegisterApp(ctx context.Context, params SendParams) (*SendResult, error) {
	return s.sendApp(ctx, params, "", false)
}

// UpdateApp uploads a new version of application id. An empty id falls back
// to the id recorded in the manifest.
func (s *Services) UpdateApp(ctx context.Context, id string, params SendParams) (*SendResult, error) {
	return s.sendApp(ctx, params, id, true)
}

func (s *Services) sendApp(ctx context.Context, params SendParams, id string, update bool) (*SendResult, error) {
	appPath := params.Path
	if appPath == "" {
		appPath = s.cwd
	}
	manifest, err := core.LoadManifest(appPath)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: MsgInvalidPath, Err: err}
	}
	snapshot, err := core.SnapshotManifest(appPath)
	if err != nil {
		return nil, ioError("Could not read the application manifest.", err)
	}

	if err := s.requireAuth(); err != nil {
		return nil, err
	}

	if update && id == "" {
		id = manifest.ID.String()
	}
	if update && id == "" {
		return nil, validationError(MsgAppIDRequired)
	}

	if err := applySendParams(manifest, params); err != nil {
		return nil, err
	}
	if err := checkIcon(appPath, manifest.IconPath); err != nil {
		return nil, err
	}

	if !update && manifest.SolutionID.IsZero() {
		solutionID, err := s.selectSolution(ctx)
		if err != nil {
			return nil, err
		}
		manifest.SolutionID = solutionID
	}

	result, err := s.upload(ctx, appPath, manifest, id, update, params.Global)
	if err != nil {
		if restoreErr := snapshot.Restore(); restoreErr != nil {
			s.logger.Warn("failed to restore manifest", "path", core.ManifestPath(appPath), "error", restoreErr)
		}
		return nil, err
	}

	if !update && !result.ID.IsZero() {
		manifest.ID = result.ID
		if err := core.SaveManifest(appPath, *manifest); err != nil {
			s.logger.Warn("failed to record application id in manifest", "path", appPath, "error", err)
		}
	}
	return result, nil
}

func (s *Services) upload(ctx context.Context, appPath string, manifest *core.Manifest, id string, update, global bool) (*SendResult, error) {
	if err := core.SaveManifest(appPath, *manifest); err != nil {
		return nil, ioError("Could not write the application manifest.", err)
	}

	archive, err := packager.Pack(ctx, appPath,
		packager.WithMockData(manifest.Mock),
		packager.WithMaxSize(s.maxArchiveSize),
		packager.WithTempDir(s.tempDir),
	)
	if err != nil {
		return nil, packError(err)
	}
	defer func() {
		if err := archive.Remove(); err != nil {
			s.logger.Warn("failed to remove archive", "path", archive.Path, "error", err)
		}
	}()
	s.logger.Debug("application packed", "path", archive.Path, "size", archive.Size)

	data := map[string]string{}
	if !update {
		data["solutionId"] = manifest.SolutionID.String()
	}
	if !global {
		data["userId"] = s.config.UserID.String()
	}
	opts := s.authOptions()
	opts.Data = data
	opts.File = rest.FileFromPath(archive.Path, "app.zip", archive.Size)

	var resp sendResponse
	if update {
		escaped := escapeID(id)
		err = s.rest.Put(ctx, s.getURL("app", escaped), opts, &resp)
		if err != nil {
			return nil, remoteError(err, map[string]string{codeNotFound: appNotFound(escaped)})
		}
	} else {
		err = s.rest.Post(ctx, s.getURL("app"), opts, &resp)
		if err != nil {
			return nil, remoteError(err, nil)
		}
	}

	result := &SendResult{ID: resp.ID, Name: manifest.Name}
	if result.ID.IsZero() {
		result.ID = core.NewID(id)
	}
	return result, nil
}

func applySendParams(manifest *core.Manifest, params SendParams) error {
	if params.Name != "" {
		manifest.Name = params.Name
	}
	if strings.TrimSpace(manifest.Name) == "" {
		return validationError(MsgNameRequired)
	}

	if params.APILevel != "" {
		level, err := parseAPILevel(params.APILevel)
		if err != nil {
			return err
		}
		manifest.MinJSAPILevel = level
	}
	if manifest.MinJSAPILevel < 1 || manifest.MinJSAPILevel > 65535 {
		return validationError(MsgBadAPILevel)
	}

	if params.Mock != "" {
		switch strings.ToLower(strings.TrimSpace(params.Mock)) {
		case "true":
			manifest.Mock = true
		case "false":
			manifest.Mock = false
		default:
			return validationError(MsgBadMock)
		}
	}
	return nil
}

func parseAPILevel(raw string) (int, error) {
	level, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || level < 1 || level > 65535 {
		return 0, validationError(MsgBadAPILevel)
	}
	return level, nil
}

func checkIcon(appPath, iconPath string) error {
	if iconPath == "" {
		return nil
	}
	local := filepath.FromSlash(iconPath)
	if !filepath.IsLocal(local) {
		return validationError(MsgIconOutside)
	}
	info, err := os.Stat(filepath.Join(appPath, local))
	if err != nil || !info.Mode().IsRegular() {
		return validationError(MsgIconMissing)
	}
	return nil
}

func packError(err error) error {
	var sizeErr *packager.SizeLimitError
	switch {
	case errors.As(err, &sizeErr):
		return &Error{Kind: KindSizeLimit, Message: sizeErr.Error(), Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindRemote, Message: rest.ErrAborted.Error() + ".", Err: err}
	default:
		return ioError("Could not pack the application: "+err.Error(), err)
	}
}

// DeleteResult identifies the removed application.
type DeleteResult struct {
	ID core.ID `json:"id"`
}

// DeleteApp unregisters application id.
func (s *Services) DeleteApp(ctx context.Context, id string) (*DeleteResult, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, validationError(MsgAppIDRequired)
	}

	err := s.rest.Del(ctx, s.getURL("app", escapeID(id)), s.authOptions(), nil)
	if err != nil {
		return nil, remoteError(err, map[string]string{codeNotFound: appNotFound(id)})
	}
	return &DeleteResult{ID: core.NewID(id)}, nil
}

// AppsList returns the registered applications, each annotated with its
// solution.
func (s *Services) AppsList(ctx context.Context) ([]Application, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}

	var (
		apps      []Application
		solutions []Solution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.rest.Get(gctx, s.getURL("app"), s.authOptions(), &apps)
	})
	g.Go(func() error {
		var err error
		solutions, err = s.fetchSolutions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, remoteError(err, nil)
	}

	byID := make(map[string]Solution, len(solutions))
	for _, solution := range solutions {
		byID[solution.ID.String()] = solution
	}
	if apps == nil {
		apps = []Application{}
	}
	for i := range apps {
		apps[i].Solution = Solution{}
		if !apps[i].SolutionID.IsZero() {
			apps[i].Solution = byID[apps[i].SolutionID.String()]
		}
	}
	return apps, nil
}
