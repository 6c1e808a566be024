package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/cartstore/internal/cart/domain"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var out, logs bytes.Buffer
	err := execute(context.Background(), args, &out, &logs)
	return out.String(), err
}

func listJSON(t *testing.T, base ...string) domain.Items {
	t.Helper()
	out, err := run(t, append(base, "list", "--json")...)
	require.NoError(t, err)

	var items domain.Items
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	return items
}

func TestCartctl_FileBackendAcrossInvocations(t *testing.T) {
	base := []string{"--backend", "file", "--dir", t.TempDir()}

	_, err := run(t, append(base, "add", "--id", "p1", "--title", "Shirt", "--image-url", "u", "--price", "10")...)
	require.NoError(t, err)
	_, err = run(t, append(base, "add", "--id", "p1", "--title", "ignored")...)
	require.NoError(t, err)
	_, err = run(t, append(base, "add", "--id", "p2", "--title", "Hat", "--price", "5")...)
	require.NoError(t, err)

	require.Equal(t, domain.Items{
		{ID: "p1", Title: "Shirt", ImageURL: "u", Price: 10, Quantity: 2},
		{ID: "p2", Title: "Hat", Price: 5, Quantity: 1},
	}, listJSON(t, base...))

	_, err = run(t, append(base, "dec", "p2")...)
	require.NoError(t, err)
	_, err = run(t, append(base, "inc", "p1")...)
	require.NoError(t, err)
	_, err = run(t, append(base, "inc", "nope")...)
	require.NoError(t, err)

	items := listJSON(t, base...)
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)
}

func TestCartctl_AddWithoutIDGeneratesOne(t *testing.T) {
	base := []string{"--backend", "file", "--dir", t.TempDir()}

	_, err := run(t, append(base, "add", "--title", "Mystery")...)
	require.NoError(t, err)

	items := listJSON(t, base...)
	require.Len(t, items, 1)
	require.Len(t, items[0].ID, 36)
}

func TestCartctl_SQLiteBackendAndKey(t *testing.T) {
	base := []string{"--backend", "sqlite", "--sqlite-path", filepath.Join(t.TempDir(), "cart.db"), "--key", "@Cart:Products"}

	_, err := run(t, append(base, "add", "--id", "p1")...)
	require.NoError(t, err)

	require.Len(t, listJSON(t, base...), 1)

	// another key in the same database starts empty
	other := []string{"--backend", "sqlite", "--sqlite-path", base[3]}
	require.Empty(t, listJSON(t, other...))
}

func TestCartctl_TableOutput(t *testing.T) {
	base := []string{"--backend", "memory"}

	out, err := run(t, append(base, "list")...)
	require.NoError(t, err)
	require.Equal(t, "cart is empty\n", out)

	out, err = run(t, append(base, "add", "--id", "p1", "--title", "Shirt", "--price", "10")...)
	require.NoError(t, err)
	require.Contains(t, out, "ID")
	require.Contains(t, out, "Shirt")
	require.Contains(t, out, "10.00")
}

func TestCartctl_Errors(t *testing.T) {
	_, err := run(t, "--backend", "floppy", "list")
	require.ErrorContains(t, err, "unknown cart backend")

	_, err = run(t, "--backend", "memory", "watch")
	require.ErrorContains(t, err, "file backend")

	_, err = run(t, "--backend", "memory", "inc")
	require.Error(t, err)
}
