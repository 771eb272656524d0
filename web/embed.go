package web

import "embed"

// StaticFS embeds the single-page expense UI (index.html, css, js).
//
//go:embed static/*
var StaticFS embed.FS
