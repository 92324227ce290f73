// Package model defines the data structures shared by the crawler and the
// report writers.
//
// This package contains the following main types:
//   - Finding: an email-like candidate and the page it was found on
//   - PageRecord: one page the crawler loaded successfully
//   - PageError: one page, trigger or navigation that failed
//   - CrawlReport: everything a single crawl produced
//
// The models live in their own package so that crawler and report can both
// use them without importing each other. They serialize to JSON as-is.
package model
