// Package pages holds the page objects: one type per Lightning screen,
// each a thin layer of catalog lookups over an interact.Kit.
package pages
