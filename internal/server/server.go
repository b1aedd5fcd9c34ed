// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on them.
// No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"
	"github.com/solokit/sessiond/internal/config"
	"github.com/solokit/sessiond/internal/prompts"
	"github.com/solokit/sessiond/internal/resources"
	"github.com/solokit/sessiond/internal/session"
	"github.com/solokit/sessiond/internal/sessiontools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the session store's database
// connection and must be called on shutdown (typically via defer).
func New(configPath string) (*server.MCPServer, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, noop, fmt.Errorf("loading config: %w", err)
	}

	codec, err := session.NewZstdCodec()
	if err != nil {
		return nil, noop, fmt.Errorf("creating codec: %w", err)
	}

	store, err := session.NewStore(cfg.SessionConfig())
	if err != nil {
		return nil, noop, fmt.Errorf("opening session store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("WARNING: session store close: %v", err)
		}
	}

	mgr := session.NewManager(store, codec, cfg.SessionConfig())
	advisor := session.NewAdvisor(store, cfg.SessionConfig())

	s := server.NewMCPServer(
		"sessiond",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register lifecycle tools ---

	createSession := sessiontools.NewCreateSessionTool(mgr)
	s.AddTool(createSession.Definition(), createSession.Handle)

	endSession := sessiontools.NewEndSessionTool(mgr)
	s.AddTool(endSession.Definition(), endSession.Handle)

	// --- Register snapshot tools ---

	createSnapshot := sessiontools.NewCreateSnapshotTool(mgr)
	s.AddTool(createSnapshot.Definition(), createSnapshot.Handle)

	restoreSnapshot := sessiontools.NewRestoreSnapshotTool(mgr)
	s.AddTool(restoreSnapshot.Definition(), restoreSnapshot.Handle)

	// --- Register bug-fix tools ---

	startBugFix := sessiontools.NewStartBugFixTool(mgr)
	s.AddTool(startBugFix.Definition(), startBugFix.Handle)

	logAttempt := sessiontools.NewLogAttemptTool(mgr)
	s.AddTool(logAttempt.Definition(), logAttempt.Handle)

	resolveBugFix := sessiontools.NewResolveBugFixTool(mgr)
	s.AddTool(resolveBugFix.Definition(), resolveBugFix.Handle)

	// --- Register advisor tools ---

	recommend := sessiontools.NewRecommendTool(advisor)
	s.AddTool(recommend.Definition(), recommend.Handle)

	predict := sessiontools.NewPredictTool(advisor)
	s.AddTool(predict.Definition(), predict.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	resumePrompt := prompts.NewResumePrompt()
	s.AddPrompt(resumePrompt.Definition(), resumePrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(mgr)
	s.AddResource(resourceHandler.ActiveSessionsResource(), resourceHandler.HandleActiveSessions)

	return s, cleanup, nil
}

// noop is a no-op cleanup function returned on initialization failure.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use sessiond effectively.
func serverInstructions() string {
	return `You have access to sessiond, a session continuity MCP server.

sessiond tracks development sessions for solo developers: it snapshots
working state so mistakes can be rolled back, records bug-fix attempts so
failed approaches aren't repeated, and bridges context between sessions
so work resumes where it left off.

## Session lifecycle

1. At the start of a work session, call session_create with project_id
   and technology. Seed initial_state with what you know about the task:
   current files, goals, open questions.
2. If the user is continuing earlier work, pass previous_session_id —
   the response includes a bridge with the unresolved issues and learned
   patterns carried forward. Summarize it for the user.
3. At the end, call session_end with a summary. Report the termination
   metrics (duration, snapshots, bug-fix success rate) to the user.

Sessions live in server memory while active; always end a session before
the server shuts down, or start the next one with previous_session_id to
recover its durable context.

## Snapshots

- Call snapshot_create BEFORE any risky change (refactor, dependency
  upgrade, schema change) and at natural checkpoints.
- Pass a state overlay describing what changed since the last snapshot.
  The overlay is merged into the captured document; the live working
  state only changes through restores.
- If a change goes wrong, call snapshot_restore with the snapshot taken
  before it. The restore merges the old state over the current one and
  is itself recorded, so it can be undone too.

## Bug-fix contexts

- When a bug appears, call bugfix_start. This captures a pre_bug_fix
  snapshot automatically — you can roll back to the moment the bug was
  found.
- Log EVERY attempt with bugfix_log_attempt, including failed ones:
  outcome "failed" attempts are the record that prevents retrying dead
  ends.
- When fixed, call bugfix_resolve with the solution and lessons_learned.
  Resolve contexts before ending the session; unresolved contexts lower
  its metrics and carry into the next session's bridge.

## Working-state conventions

State documents are free-form JSON objects. Two keys get special
treatment when bridging to a future session:
- unresolved_issues: list of strings — carried into the next session's
  bridge as its unresolved issues
- patterns_used: list of strings — carried as learned patterns

Keep both keys up to date in snapshot overlays.

## Advisor

- session_recommend scores session health from duration, snapshot
  cadence, and bug-fix load. Suggest a break or session end when it says
  so.
- session_predict estimates success probability, risk, and remaining
  time from this project's completed sessions. Use it when the user asks
  "how is this going?" or seems stuck.

## Error handling

Tool errors name the problem: "not found" means a bad id, "is completed"
or "is resolved" means the target can no longer be mutated, and corrupt
snapshot data means that snapshot cannot be restored (pick an earlier
one). Do not retry the same call unchanged after an error.`
}
