package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"moviecatalog/internal/client"
	"moviecatalog/internal/domain"
	"moviecatalog/internal/listview"
)

type pageLister interface {
	ListMovies(ctx context.Context, page, limit int) (*domain.MoviePage, error)
}

func listMovies(args []string) error {
	fs := flag.NewFlagSet("movies", flag.ContinueOnError)
	server := fs.String("server", "http://localhost:8080", "catalog server URL")
	identifier := fs.String("email", "", "email or username to sign in with")
	limit := fs.Int("limit", 8, "movies per request")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *identifier == "" {
		return fmt.Errorf("-email is required")
	}

	c, err := client.New(*server)
	if err != nil {
		return err
	}
	password, err := promptPassword(os.Stderr, os.Stdin, "Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := c.Login(ctx, *identifier, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	defer c.Logout(context.Background()) //nolint:errcheck

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tYEAR\tPOSTER")
	total, err := pageThrough(ctx, c, *limit, func(m domain.Movie) {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.ID, m.Title, m.PublishingYear, m.Poster)
	})
	if err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d movies\n", total)
	return nil
}

// pageThrough drives the list view the way a narrow screen does: load the
// first page, then keep scrolling to the end until no pages remain. emit
// sees each movie once, in catalog order.
func pageThrough(ctx context.Context, l pageLister, limit int, emit func(domain.Movie)) (int, error) {
	m, cmd := listview.Transition(listview.New(limit), listview.Mount{})
	for cmd != nil {
		seen := len(m.Movies)
		page, err := l.ListMovies(ctx, cmd.Page, cmd.Limit)
		if err != nil {
			m, _ = listview.Transition(m, listview.LoadFailed{Err: err})
			return len(m.Movies), fmt.Errorf("page %d: %w", cmd.Page, m.Err)
		}
		m, _ = listview.Transition(m, listview.PageLoaded{Result: *page})
		for _, mv := range m.Movies[seen:] {
			emit(mv)
		}
		m, cmd = listview.Transition(m, listview.ScrolledToEnd{Viewport: listview.Narrow})
	}
	return len(m.Movies), nil
}
