// Package review orchestrates the pull request review pipeline: fetch the
// changed files, run the analyzers, score the result, and deliver it to the
// console, the pull request, and on-disk artifacts.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/diff"
	"github.com/reviewbot/prr/internal/domain"
	"github.com/reviewbot/prr/internal/store"
)

// Output destinations for review results.
const (
	OutputConsole = "console"
	OutputGitHub  = "github"
	OutputBoth    = "both"
)

// defaultMaxPRsPerRun caps --all runs when no limit is configured.
const defaultMaxPRsPerRun = 10

// defaultHistoryLimit caps history listings when no limit is requested.
const defaultHistoryLimit = 20

// GitHubClient defines the outbound port for the GitHub API.
type GitHubClient interface {
	Repository() string
	GetPullRequest(ctx context.Context, number int) (*domain.PullRequest, error)
	ListOpenPullRequests(ctx context.Context) ([]domain.PullRequest, error)
	ListFiles(ctx context.Context, number int) ([]domain.ChangedFile, error)
	GetFileContent(ctx context.Context, path, ref string) (string, error)
	PostIssueComment(ctx context.Context, number int, body string) error
	CreateReview(ctx context.Context, number int, event, body string, comments []domain.InlineComment) error
}

// GitEngine defines the outbound port for local repository diffs.
type GitEngine interface {
	ChangedFiles(ctx context.Context, baseRef, targetRef string) ([]domain.ChangedFile, error)
	ResolveSHA(ctx context.Context, ref string) (string, error)
	CurrentBranch(ctx context.Context) (string, error)
}

// Analyzer inspects one changed file and reports findings.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, file domain.ChangedFile) ([]domain.Finding, error)
}

// ReportWriter persists a report to disk and returns the artifact path.
type ReportWriter interface {
	Write(ctx context.Context, outputDir string, report domain.Report) (string, error)
}

// ConsoleRenderer prints a report for a human reader.
type ConsoleRenderer interface {
	Render(report domain.Report) error
}

// CommentBuilder renders the review body posted to the pull request.
type CommentBuilder func(report domain.Report) string

// Logger provides structured logging for the review pipeline.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogDebug(ctx context.Context, message string, fields map[string]interface{})
}

// Deps captures the orchestrator dependencies.
type Deps struct {
	GitHub       GitHubClient
	Git          GitEngine // optional: only needed for local reviews
	Analyzers    []Analyzer
	Writers      map[string]ReportWriter // keyed by format name
	Console      ConsoleRenderer
	BuildComment CommentBuilder
	Store        store.Store // optional: skip-unchanged tracking and history
	Logger       Logger      // optional
	Config       config.Config
	Now          func() time.Time
}

// PRRequest asks for a review of a single pull request.
type PRRequest struct {
	Number int
	Output string // console, github, or both
	Force  bool   // review even if the head commit was already reviewed
}

// AllRequest asks for a review of every open pull request.
type AllRequest struct {
	Output string
	Force  bool
}

// LocalRequest asks for a review of a local branch diff. An empty TargetRef
// means the checked-out branch.
type LocalRequest struct {
	BaseRef   string
	TargetRef string
}

// Result captures the outcome for one reviewed pull request.
type Result struct {
	Report        domain.Report
	Skipped       bool // head commit already reviewed
	ArtifactPaths map[string]string
}

// Orchestrator implements the review pipeline.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) validateDependencies() error {
	if o.deps.GitHub == nil {
		return errors.New("github client is required")
	}
	if len(o.deps.Analyzers) == 0 {
		return errors.New("at least one analyzer is required")
	}
	if o.deps.Console == nil {
		return errors.New("console renderer is required")
	}
	if o.deps.BuildComment == nil {
		return errors.New("comment builder is required")
	}
	// Git, Store and Logger are optional
	return nil
}

// ReviewPR reviews a single pull request and delivers the result to the
// requested outputs.
func (o *Orchestrator) ReviewPR(ctx context.Context, req PRRequest) (Result, error) {
	if err := o.validateDependencies(); err != nil {
		return Result{}, err
	}
	if err := validateOutput(req.Output); err != nil {
		return Result{}, err
	}

	pr, err := o.deps.GitHub.GetPullRequest(ctx, req.Number)
	if err != nil {
		return Result{}, err
	}

	repository := o.deps.GitHub.Repository()

	if !req.Force && o.alreadyReviewed(ctx, repository, *pr) {
		o.logInfo(ctx, "skipping pull request, head commit already reviewed", map[string]interface{}{
			"prNumber": pr.Number,
			"headSha":  pr.HeadSHA,
		})
		return Result{
			Report: domain.Report{
				Repository: repository,
				PRNumber:   pr.Number,
				Title:      pr.Title,
				HeadSHA:    pr.HeadSHA,
			},
			Skipped: true,
		}, nil
	}

	files, err := o.deps.GitHub.ListFiles(ctx, pr.Number)
	if err != nil {
		return Result{}, err
	}

	files = FilterFiles(files, o.excludePatterns())
	files = o.fetchContents(ctx, files, pr.HeadSHA)

	report := domain.Report{
		Repository: repository,
		PRNumber:   pr.Number,
		Title:      pr.Title,
		HeadSHA:    pr.HeadSHA,
		Results:    o.analyzeFiles(ctx, files),
	}
	report.Summary = domain.NewSummary(report.AllFindings())

	paths, err := o.deliver(ctx, report, req.Output, commentableLines(files))
	if err != nil {
		return Result{}, err
	}

	o.persist(ctx, report)

	return Result{Report: report, ArtifactPaths: paths}, nil
}

// ReviewAll reviews open pull requests up to the configured cap. Failures on
// individual pull requests are logged and do not abort the run.
func (o *Orchestrator) ReviewAll(ctx context.Context, req AllRequest) ([]Result, error) {
	if err := o.validateDependencies(); err != nil {
		return nil, err
	}
	if err := validateOutput(req.Output); err != nil {
		return nil, err
	}

	prs, err := o.deps.GitHub.ListOpenPullRequests(ctx)
	if err != nil {
		return nil, err
	}

	maxPRs := o.deps.Config.General.MaxPRsPerRun
	if maxPRs <= 0 {
		maxPRs = defaultMaxPRsPerRun
	}
	if len(prs) > maxPRs {
		o.logInfo(ctx, "capping review run", map[string]interface{}{
			"open":   len(prs),
			"maxPRs": maxPRs,
		})
		prs = prs[:maxPRs]
	}

	results := make([]Result, 0, len(prs))
	for _, pr := range prs {
		result, err := o.ReviewPR(ctx, PRRequest{Number: pr.Number, Output: req.Output, Force: req.Force})
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			o.logWarning(ctx, "review failed, continuing with remaining pull requests", map[string]interface{}{
				"prNumber": pr.Number,
				"error":    err.Error(),
			})
			continue
		}
		results = append(results, result)
	}

	return results, nil
}

// ReviewLocal reviews the diff between two refs of the local repository. The
// result goes to the console and artifact writers only.
func (o *Orchestrator) ReviewLocal(ctx context.Context, req LocalRequest) (Result, error) {
	if o.deps.Git == nil {
		return Result{}, errors.New("git engine is required for local reviews")
	}
	if len(o.deps.Analyzers) == 0 {
		return Result{}, errors.New("at least one analyzer is required")
	}
	if o.deps.Console == nil {
		return Result{}, errors.New("console renderer is required")
	}

	targetRef := req.TargetRef
	if targetRef == "" {
		branch, err := o.deps.Git.CurrentBranch(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("detect current branch: %w", err)
		}
		targetRef = branch
	}

	headSHA, err := o.deps.Git.ResolveSHA(ctx, targetRef)
	if err != nil {
		return Result{}, err
	}

	files, err := o.deps.Git.ChangedFiles(ctx, req.BaseRef, targetRef)
	if err != nil {
		return Result{}, err
	}

	files = FilterFiles(files, o.excludePatterns())

	report := domain.Report{
		Repository: o.localRepository(),
		Title:      fmt.Sprintf("%s..%s", req.BaseRef, targetRef),
		HeadSHA:    headSHA,
		Results:    o.analyzeFiles(ctx, files),
	}
	report.Summary = domain.NewSummary(report.AllFindings())

	paths, err := o.deliver(ctx, report, OutputConsole, nil)
	if err != nil {
		return Result{}, err
	}

	return Result{Report: report, ArtifactPaths: paths}, nil
}

// RunHistory lists the most recent stored runs for the repository, newest
// first.
func (o *Orchestrator) RunHistory(ctx context.Context, limit int) ([]store.Run, error) {
	if o.deps.Store == nil {
		return nil, errors.New("run store is not configured; enable store in the configuration")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	repository := o.localRepository()
	if o.deps.GitHub != nil {
		repository = o.deps.GitHub.Repository()
	}

	return o.deps.Store.ListRuns(ctx, repository, limit)
}

// RunFindings returns a stored run and the findings it recorded.
func (o *Orchestrator) RunFindings(ctx context.Context, runID string) (store.Run, []store.FindingRecord, error) {
	if o.deps.Store == nil {
		return store.Run{}, nil, errors.New("run store is not configured; enable store in the configuration")
	}

	run, err := o.deps.Store.GetRun(ctx, runID)
	if err != nil {
		return store.Run{}, nil, err
	}

	findings, err := o.deps.Store.GetFindingsByRun(ctx, runID)
	if err != nil {
		return store.Run{}, nil, err
	}

	return run, findings, nil
}

// alreadyReviewed reports whether the PR head commit matches the most recent
// stored run. Store errors never block a review.
func (o *Orchestrator) alreadyReviewed(ctx context.Context, repository string, pr domain.PullRequest) bool {
	if o.deps.Store == nil || pr.HeadSHA == "" {
		return false
	}

	last, err := o.deps.Store.LastRunForPR(ctx, repository, pr.Number)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			o.logWarning(ctx, "failed to load previous run", map[string]interface{}{
				"prNumber": pr.Number,
				"error":    err.Error(),
			})
		}
		return false
	}

	return last.HeadSHA == pr.HeadSHA
}

// fetchContents fills in the full file content for files the listing did not
// include it for. Files whose content cannot be fetched are dropped with a
// warning rather than failing the run.
func (o *Orchestrator) fetchContents(ctx context.Context, files []domain.ChangedFile, ref string) []domain.ChangedFile {
	kept := make([]domain.ChangedFile, 0, len(files))
	for _, file := range files {
		if file.Content == "" {
			content, err := o.deps.GitHub.GetFileContent(ctx, file.Path, ref)
			if err != nil {
				o.logWarning(ctx, "failed to fetch file content, skipping file", map[string]interface{}{
					"file":  file.Path,
					"error": err.Error(),
				})
				continue
			}
			file.Content = content
		}
		kept = append(kept, file)
	}
	return kept
}

// analyzeFiles runs every analyzer over every file. Analyzer failures on a
// single file are logged and the pipeline continues.
func (o *Orchestrator) analyzeFiles(ctx context.Context, files []domain.ChangedFile) []domain.AnalyzerResult {
	results := make([]domain.AnalyzerResult, 0, len(o.deps.Analyzers))
	for _, analyzer := range o.deps.Analyzers {
		result := domain.AnalyzerResult{Analyzer: analyzer.Name()}
		for _, file := range files {
			findings, err := analyzer.Analyze(ctx, file)
			if err != nil {
				o.logWarning(ctx, "analyzer failed on file", map[string]interface{}{
					"analyzer": analyzer.Name(),
					"file":     file.Path,
					"error":    err.Error(),
				})
				continue
			}
			result.Findings = append(result.Findings, findings...)
		}
		results = append(results, result)
	}
	return results
}

// deliver routes the report to the console, the pull request, and the
// configured artifact writers.
func (o *Orchestrator) deliver(ctx context.Context, report domain.Report, output string, commentable map[string]diff.Lines) (map[string]string, error) {
	if output == OutputConsole || output == OutputBoth {
		if err := o.deps.Console.Render(report); err != nil {
			return nil, fmt.Errorf("render report: %w", err)
		}
	}

	if (output == OutputGitHub || output == OutputBoth) && report.PRNumber > 0 {
		if err := o.postToGitHub(ctx, report, commentable); err != nil {
			return nil, err
		}
	}

	paths := make(map[string]string)
	for _, format := range o.deps.Config.Output.Formats {
		writer, ok := o.deps.Writers[format]
		if !ok {
			o.logWarning(ctx, "no writer for output format", map[string]interface{}{"format": format})
			continue
		}
		path, err := writer.Write(ctx, o.deps.Config.Output.Directory, report)
		if err != nil {
			return nil, fmt.Errorf("write %s artifact: %w", format, err)
		}
		paths[format] = path
	}

	return paths, nil
}

// postToGitHub submits the review. Blocking findings produce a
// REQUEST_CHANGES review with inline comments; everything else lands as a
// plain comment. When inline placement fails (for example a finding outside
// the diff), the review falls back to a comment so the result is never lost.
func (o *Orchestrator) postToGitHub(ctx context.Context, report domain.Report, commentable map[string]diff.Lines) error {
	body := o.deps.BuildComment(report)

	comments := inlineComments(report, commentable)
	if len(comments) == 0 {
		return o.deps.GitHub.PostIssueComment(ctx, report.PRNumber, body)
	}

	event := domain.ReviewEventComment
	if report.Summary.Blocking() {
		event = domain.ReviewEventRequestChanges
	}

	if err := o.deps.GitHub.CreateReview(ctx, report.PRNumber, event, body, comments); err != nil {
		o.logWarning(ctx, "inline review failed, falling back to comment", map[string]interface{}{
			"prNumber": report.PRNumber,
			"error":    err.Error(),
		})
		return o.deps.GitHub.PostIssueComment(ctx, report.PRNumber, body)
	}

	return nil
}

// commentableLines indexes each file's patch so inline comments only land on
// lines GitHub accepts. Files without a patch stay unindexed and unfiltered.
func commentableLines(files []domain.ChangedFile) map[string]diff.Lines {
	index := make(map[string]diff.Lines)
	for _, file := range files {
		if file.Patch == "" {
			continue
		}
		index[file.Path] = diff.NewSideLines(file.Patch)
	}
	return index
}

// inlineComments selects the findings worth anchoring to a diff line. Only
// critical and high findings with a line number inside the diff become
// inline comments.
func inlineComments(report domain.Report, commentable map[string]diff.Lines) []domain.InlineComment {
	var comments []domain.InlineComment
	for _, finding := range report.AllFindings() {
		if finding.Line <= 0 {
			continue
		}
		if finding.Severity != domain.SeverityCritical && finding.Severity != domain.SeverityHigh {
			continue
		}
		if lines, ok := commentable[finding.File]; ok && !lines.Contains(finding.Line) {
			continue
		}
		body := fmt.Sprintf("**%s** (%s): %s", finding.Severity, finding.Rule, finding.Message)
		if finding.Suggestion != "" {
			body += fmt.Sprintf("\n\nSuggestion: %s", finding.Suggestion)
		}
		comments = append(comments, domain.InlineComment{
			Path: finding.File,
			Line: finding.Line,
			Body: body,
		})
	}
	return comments
}

// persist records the run and its findings. Storage failures are logged and
// never fail the review.
func (o *Orchestrator) persist(ctx context.Context, report domain.Report) {
	if o.deps.Store == nil {
		return
	}

	configHash, err := store.CalculateConfigHash(o.deps.Config)
	if err != nil {
		o.logWarning(ctx, "failed to hash config", map[string]interface{}{"error": err.Error()})
		configHash = "unknown"
	}

	now := o.deps.Now()
	run := store.Run{
		RunID:         store.GenerateRunID(now, report.Repository, report.PRNumber),
		Repository:    report.Repository,
		PRNumber:      report.PRNumber,
		HeadSHA:       report.HeadSHA,
		Timestamp:     now,
		Score:         report.Summary.Score,
		Verdict:       report.Summary.Verdict,
		TotalFindings: report.Summary.TotalFindings,
		ConfigHash:    configHash,
	}

	if err := o.deps.Store.CreateRun(ctx, run); err != nil {
		o.logWarning(ctx, "failed to persist run", map[string]interface{}{"error": err.Error()})
		return
	}

	findings := report.AllFindings()
	records := make([]store.FindingRecord, 0, len(findings))
	for _, finding := range findings {
		records = append(records, store.FindingRecord{
			FindingID:  finding.ID,
			RunID:      run.RunID,
			File:       finding.File,
			Line:       finding.Line,
			Severity:   finding.Severity,
			Category:   finding.Category,
			Rule:       finding.Rule,
			Message:    finding.Message,
			Suggestion: finding.Suggestion,
		})
	}

	if err := o.deps.Store.SaveFindings(ctx, records); err != nil {
		o.logWarning(ctx, "failed to persist findings", map[string]interface{}{"error": err.Error()})
	}
}

func (o *Orchestrator) excludePatterns() []string {
	if len(o.deps.Config.ExcludePatterns) > 0 {
		return o.deps.Config.ExcludePatterns
	}
	return config.DefaultExcludePatterns()
}

func (o *Orchestrator) localRepository() string {
	cfg := o.deps.Config.GitHub
	if cfg.Owner != "" && cfg.Repo != "" {
		return cfg.Owner + "/" + cfg.Repo
	}
	return "local"
}

func (o *Orchestrator) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (o *Orchestrator) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, message, fields)
	}
}

func validateOutput(output string) error {
	switch output {
	case OutputConsole, OutputGitHub, OutputBoth:
		return nil
	default:
		return fmt.Errorf("invalid output %q: must be console, github, or both", output)
	}
}
