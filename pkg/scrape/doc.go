// Package scrape implements the discovery crawl. A Runner takes a campaign
// through every configured source in strict order, a Processor walks each
// source's posts through the profile, likers and comments phases, and the
// engagement scrapers paginate the popup lists with scroll-end detection.
// Progress is persisted after every state change so an interrupted run
// resumes at the exact source, post and phase it left off.
package scrape
