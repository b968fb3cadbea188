// Package main provides the vastra CLI.
//
// Install:
//
//	go install github.com/shashiranjanraj/vastra/cmd/vastra@latest
//
// Commands:
//
//	vastra import feed.csv          # run a feed import
//	vastra import feed.csv --async  # queue it for a worker
//	vastra profiles                 # list vendor profiles
//	vastra migrate                  # run migrations
//	vastra migrate:rollback
//	vastra migrate:status
//	vastra seed                     # seed canonical categories
//	vastra queue:work               # start background workers
//	vastra serve                    # health + metrics endpoints
package main
