package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"satkit/internal/config"
	"satkit/internal/fingerprint"
	"satkit/internal/generation"
	"satkit/internal/hierarchy"
	"satkit/internal/logging"
	"satkit/internal/manifest"
	"satkit/internal/storage"
)

// Resolver plans and applies scenarios against a dataset and the configured
// recorded-data directories.
type Resolver struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  generation.Engine
	storage storage.Collaborator

	mu       sync.Mutex
	stores   map[string]*manifest.Store
	storeErr map[string]error

	keyMu    sync.Mutex
	keyLocks map[manifest.Key]*sync.Mutex
}

// New builds a resolver. The engine and storage collaborators are required;
// logger may be nil.
func New(cfg *config.Config, engine generation.Engine, store storage.Collaborator, logger *slog.Logger) *Resolver {
	return &Resolver{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "scenario"),
		engine:   engine,
		storage:  store,
		stores:   make(map[string]*manifest.Store),
		storeErr: make(map[string]error),
		keyLocks: make(map[manifest.Key]*sync.Mutex),
	}
}

// Run resolves and applies a scenario in one pass, creating a fresh working
// directory for the run. The returned report carries per-item outcomes; Run
// only fails outright for structural violations, setup errors, or when every
// single item failed.
func (r *Resolver) Run(ctx context.Context, dataset *hierarchy.Dataset, spec *Spec) (*Report, error) {
	defer r.Close()

	runID := uuid.NewString()[:8]
	runDir := filepath.Join(r.cfg.Paths.WorkingDir, fmt.Sprintf("%s_%s", spec.Name, runID))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	report := &Report{
		RunID:      runID,
		Scenario:   spec.Name,
		WorkingDir: runDir,
		StartedAt:  time.Now().UTC(),
	}

	plan := r.Resolve(dataset, spec)
	if err := r.Apply(ctx, plan, runDir, report); err != nil {
		return report, err
	}
	report.FinishedAt = time.Now().UTC()

	if report.AllFailed() {
		return report, ErrAllItemsFailed
	}
	return report, nil
}

// Resolve fingerprints every scenario item, consults the manifests of the
// relevant recorded-data directories, and produces the reuse-versus-generate
// plan. Items that cannot be planned land in Plan.Failed.
func (r *Resolver) Resolve(dataset *hierarchy.Dataset, spec *Spec) *Plan {
	plan := &Plan{}
	for index, item := range spec.Items {
		planned, failure := r.planItem(dataset, index, item)
		if failure != nil {
			plan.Failed = append(plan.Failed, *failure)
			continue
		}
		switch planned.Action {
		case ActionReuse:
			plan.Reuse = append(plan.Reuse, planned)
		default:
			plan.Generate = append(plan.Generate, planned)
		}
	}
	return plan
}

func (r *Resolver) planItem(dataset *hierarchy.Dataset, index int, item Item) (PlannedItem, *ItemResult) {
	fail := func(err error) *ItemResult {
		return &ItemResult{Index: index, Kind: item.Kind, SourcePath: item.Select.String(), Outcome: OutcomeFailed, Err: err}
	}

	fp, err := fingerprint.Compute(item.Kind, item.Params)
	if err != nil {
		return PlannedItem{}, fail(err)
	}

	match, err := selectSource(dataset, item.Select)
	if err != nil {
		return PlannedItem{}, fail(err)
	}
	source := match.source

	owningDir := source.RecordedDir()
	if _, err := r.storeFor(owningDir); err != nil {
		// The owning directory's manifest is unreadable; nothing can be
		// safely recorded for this item.
		return PlannedItem{}, fail(err)
	}

	planned := PlannedItem{
		Index:       index,
		Kind:        item.Kind,
		Params:      item.Params,
		Fingerprint: fp,
		Source:      source,
		SourcePath:  match.label,
		ManifestDir: owningDir,
		Action:      ActionGenerate,
	}

	entry, entryDir, found := r.bestEntry(source, item.Kind, fp)
	if !found {
		return planned, nil
	}
	if r.storage.Exists(entry.Location) {
		planned.Action = ActionReuse
		planned.ReuseFrom = entry
		return planned, nil
	}

	// Stale manifest entry: the manifest promises an artifact that is gone.
	// Recover by regenerating; drop the dead entry so it is not offered again.
	r.logger.Warn("stale manifest entry, regenerating",
		logging.Alert("stale_manifest_entry"),
		logging.String(logging.FieldSourceID, source.ID()),
		logging.String(logging.FieldKind, item.Kind),
		logging.String(logging.FieldDirectory, entryDir),
		logging.String("missing_location", entry.Location))
	if store, err := r.storeFor(entryDir); err == nil {
		store.Remove(entry.SourceID, entry.Kind, entry.Fingerprint)
	}
	planned.Stale = true
	return planned, nil
}

// bestEntry searches the manifests of every candidate directory and applies
// the tie-break: the most recently generated entry wins, and equal timestamps
// fall back to the configured search order.
func (r *Resolver) bestEntry(source *hierarchy.Source, kind, fp string) (manifest.Entry, string, bool) {
	var (
		best    manifest.Entry
		bestDir string
		found   bool
	)
	for _, dir := range r.searchDirs(source) {
		store, err := r.storeFor(dir)
		if err != nil {
			if dir != source.RecordedDir() {
				r.logger.Warn("skipping unreadable manifest during search",
					logging.String(logging.FieldDirectory, dir),
					logging.Error(err))
			}
			continue
		}
		entry, ok := store.Lookup(source.ID(), kind, fp)
		if !ok {
			continue
		}
		// Strictly-after comparison keeps the earlier directory on ties.
		if !found || entry.GeneratedAt.After(best.GeneratedAt) {
			best = entry
			bestDir = dir
			found = true
		}
	}
	return best, bestDir, found
}

// searchDirs returns the candidate directories for a source in deterministic
// order: the configured recorded roots, with the source's own directory
// prepended when configuration does not already list it.
func (r *Resolver) searchDirs(source *hierarchy.Source) []string {
	roots := r.cfg.Paths.RecordedRoots
	owning := source.RecordedDir()
	for _, root := range roots {
		if root == owning {
			return roots
		}
	}
	dirs := make([]string, 0, len(roots)+1)
	dirs = append(dirs, owning)
	dirs = append(dirs, roots...)
	return dirs
}

// Apply executes a plan, appending item outcomes to the report. Reused
// artifacts are copied into runDir; generated ones are written there,
// inserted into the hierarchy, and recorded in the manifest of the directory
// owning the source's recorded data. Structural violations abort the run;
// everything else is a per-item outcome.
func (r *Resolver) Apply(ctx context.Context, plan *Plan, runDir string, report *Report) error {
	report.Items = append(report.Items, plan.Failed...)

	items := plan.Items()
	results := make([]ItemResult, len(items))

	workers := r.cfg.Scenario.Workers
	if workers < 1 {
		workers = 1
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, item := range items {
		i, item := i, item
		group.Go(func() error {
			result, structural := r.applyItem(groupCtx, item, runDir)
			if structural != nil {
				return structural
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	report.Items = append(report.Items, results...)

	return r.persistStores()
}

// applyItem executes one planned item. The second return value is non-nil
// only for hierarchy invariant violations, which indicate a caller bug and
// must reach the caller unchanged instead of becoming a per-item outcome.
func (r *Resolver) applyItem(ctx context.Context, item PlannedItem, runDir string) (ItemResult, error) {
	result := ItemResult{
		Index:          item.Index,
		Kind:           item.Kind,
		SourcePath:     item.SourcePath,
		Fingerprint:    item.Fingerprint,
		StaleRecovered: item.Stale,
	}

	if item.Action == ActionReuse {
		location, err := r.storage.Copy(item.ReuseFrom.Location, runDir)
		if err != nil {
			result.Outcome = OutcomeFailed
			result.Err = fmt.Errorf("copy reused artifact: %w", err)
			return result, nil
		}
		result.Outcome = OutcomeReused
		result.Location = location
		r.logger.Info("reused artifact",
			logging.String(logging.FieldSourceID, item.Source.ID()),
			logging.String(logging.FieldKind, item.Kind),
			logging.String("from", item.ReuseFrom.Location))
		return result, nil
	}

	key := manifest.Key{SourceID: item.Source.ID(), Kind: item.Kind, Fingerprint: item.Fingerprint}
	lock := r.lockForKey(key)
	lock.Lock()
	defer lock.Unlock()

	// Another item in this run may have generated the same artifact while we
	// waited on the key lock; reuse its manifest entry instead of repeating
	// the work.
	if store, err := r.storeFor(item.ManifestDir); err == nil {
		if entry, ok := store.Lookup(key.SourceID, key.Kind, key.Fingerprint); ok && r.storage.Exists(entry.Location) {
			location := entry.Location
			// The artifact already sits in this run's working directory when a
			// sibling item generated it moments ago; copying it onto itself
			// would truncate it.
			if filepath.Dir(location) != runDir {
				copied, err := r.storage.Copy(location, runDir)
				if err != nil {
					result.Outcome = OutcomeFailed
					result.Err = fmt.Errorf("copy reused artifact: %w", err)
					return result, nil
				}
				location = copied
			}
			result.Outcome = OutcomeReused
			result.Location = location
			return result, nil
		}
	}

	modality, err := r.engine.Generate(ctx, item.Kind, item.Params, item.Source)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = &GenerationError{Kind: item.Kind, SourceID: item.Source.ID(), Err: err}
		return result, nil
	}

	location, err := writeArtifact(runDir, item, modality)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result, nil
	}

	insert := item.Source.AddModality
	if item.Stale {
		// Regeneration after a stale entry replaces the modality of the same
		// name left by the earlier run.
		insert = item.Source.ReplaceModality
	}
	if err := insert(modality); err != nil {
		if isStructuralViolation(err) {
			return result, err
		}
		result.Outcome = OutcomeFailed
		result.Err = err
		return result, nil
	}

	store, err := r.storeFor(item.ManifestDir)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result, nil
	}
	entry := manifest.Entry{
		SourceID:    key.SourceID,
		Kind:        key.Kind,
		Fingerprint: key.Fingerprint,
		Location:    location,
		GeneratedAt: time.Now().UTC(),
	}
	if err := store.Record(entry, false); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return result, nil
	}

	result.Outcome = OutcomeGenerated
	result.Location = location
	r.logger.Info("generated artifact",
		logging.String(logging.FieldSourceID, item.Source.ID()),
		logging.String(logging.FieldKind, item.Kind),
		logging.String(logging.FieldFingerprint, item.Fingerprint),
		logging.String("location", location))
	return result, nil
}

// storeFor returns the cached manifest store for a directory, loading and
// locking it on first use. Load failures poison the directory for the whole
// run: a manifest that fails to parse is never treated as empty.
func (r *Resolver) storeFor(dir string) (*manifest.Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, poisoned := r.storeErr[dir]; poisoned {
		return nil, err
	}
	if store, ok := r.stores[dir]; ok {
		return store, nil
	}

	store := manifest.NewStore(dir, r.cfg.Manifest.FileName, r.cfg.Manifest.LockFileName, r.logger)
	if err := store.Lock(); err != nil {
		r.storeErr[dir] = err
		return nil, err
	}
	if err := store.Load(); err != nil {
		_ = store.Unlock()
		r.storeErr[dir] = err
		return nil, err
	}
	r.stores[dir] = store
	return store, nil
}

func (r *Resolver) persistStores() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, store := range r.stores {
		if err := store.Persist(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases every directory lock taken during the run.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for dir, store := range r.stores {
		if err := store.Unlock(); err != nil {
			r.logger.Warn("release manifest lock",
				logging.String(logging.FieldDirectory, dir),
				logging.Error(err))
		}
	}
	r.stores = make(map[string]*manifest.Store)
	r.storeErr = make(map[string]error)
}

func (r *Resolver) lockForKey(key manifest.Key) *sync.Mutex {
	r.keyMu.Lock()
	defer r.keyMu.Unlock()
	lock, ok := r.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.keyLocks[key] = lock
	}
	return lock
}

func isStructuralViolation(err error) bool {
	var dup *hierarchy.DuplicateKeyError
	var unknown *hierarchy.UnknownParticipantError
	var shape *hierarchy.ShapeMismatchError
	return errors.As(err, &dup) || errors.As(err, &unknown) || errors.As(err, &shape)
}
