package socialmuse

import "embed"

// EmbeddedAssets contains the static assets served under /public/:
// app.js (image loading, copy, confirm) and app.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
