// Package koremd is the Composition Root for the KoreMD note-taking core.
//
// It connects the core logic (the file registry and the settings store) with
// the storage adapters using the Hexagonal Architecture pattern.
//
// KoreMD keeps Markdown notes as one JSON blob, read and written wholesale
// through a storage adapter with two backends:
//
//   - **Native**: a file under an application-private data directory, written atomically.
//   - **Web**: an origin-scoped key/value table, the equivalent of browser local storage.
//
// The backend is chosen once when the App is built. Settings always live on the
// web backend.
//
// Usage:
//
//	app, err := koremd.New(ctx,
//		koremd.WithDataDir("./notes"),
//		koremd.WithLogger(logger),
//	)
//	defer app.Close()
//
//	note := app.Registry.Create(ctx, "ideas.md")
//	app.Registry.Update(ctx, note.ID, "# Ideas", "")
//	html := app.Renderer.Render(note.Content)
package koremd
