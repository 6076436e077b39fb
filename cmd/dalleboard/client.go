package main

import (
	"context"
	"encoding/base64"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/eringen/dalleboard"
	"github.com/eringen/dalleboard/client"
	"github.com/eringen/dalleboard/media"
	"github.com/eringen/dalleboard/store"
)

func clientFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	server := fs.String("server", dalleboard.EnvOr("DALLEBOARD_URL", "http://localhost:8080"), "dalleboard server URL")
	return fs, server
}

// sharer adapts the API client to the form's Sharer.
type sharer struct {
	c *client.Client
}

func (s sharer) CreatePost(ctx context.Context, p store.Post) (store.Post, error) {
	return s.c.CreatePost(ctx, p.Name, p.Prompt, p.Photo)
}

// runCreate drives the create form from a terminal: generate, then share.
func runCreate(args []string) error {
	fs, server := clientFlags("create")
	name := fs.String("name", "", "your name")
	prompt := fs.String("prompt", "", "image prompt")
	surprise := fs.Bool("surprise", false, "start from a random prompt")
	out := fs.String("out", "", "also save the generated image to this file")
	fs.Parse(args)

	ctx := context.Background()
	c := client.New(*server, nil)

	var form dalleboard.Form
	form.Set(dalleboard.FieldName, *name)
	form.Set(dalleboard.FieldPrompt, *prompt)
	if *surprise {
		p, err := c.RandomPrompt(ctx, form.Prompt)
		if err != nil {
			return err
		}
		form.Set(dalleboard.FieldPrompt, p)
		fmt.Printf("Prompt: %s\n", p)
	}

	fmt.Println("Generating...")
	if err := form.Generate(ctx, c); err != nil {
		return err
	}
	if *out != "" {
		if err := writePhoto(*out, form.Photo); err != nil {
			return err
		}
		fmt.Printf("Saved %s\n", *out)
	}
	if !form.CanShare() {
		return fmt.Errorf("nothing to share")
	}

	fmt.Println("Sharing...")
	post, err := form.Share(ctx, sharer{c})
	if err != nil {
		return err
	}
	fmt.Printf("Shared post %s: %s\n", post.ID, post.Photo)
	return nil
}

func runGenerate(args []string) error {
	fs, server := clientFlags("generate")
	prompt := fs.String("prompt", "", "image prompt")
	out := fs.String("out", "image.jpg", "output file")
	fs.Parse(args)

	if strings.TrimSpace(*prompt) == "" {
		return dalleboard.ErrPromptRequired
	}
	photo, err := client.New(*server, nil).Generate(context.Background(), *prompt)
	if err != nil {
		return err
	}
	if err := writePhoto(*out, photo); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", *out)
	return nil
}

func runShare(args []string) error {
	fs, server := clientFlags("share")
	name := fs.String("name", "", "your name")
	prompt := fs.String("prompt", "", "prompt the image was made from")
	photo := fs.String("photo", "", "image file or http(s) URL")
	fs.Parse(args)

	src := *photo
	if src != "" && !media.IsRemote(src) {
		uri, err := dataURI(src)
		if err != nil {
			return err
		}
		src = uri
	}
	post, err := client.New(*server, nil).CreatePost(context.Background(), *name, *prompt, src)
	if err != nil {
		return err
	}
	fmt.Printf("Shared post %s: %s\n", post.ID, post.Photo)
	return nil
}

func runList(args []string) error {
	fs, server := clientFlags("list")
	fs.Parse(args)

	posts, err := client.New(*server, nil).ListPosts(context.Background())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPROMPT\tPHOTO")
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Prompt, p.Photo)
	}
	return w.Flush()
}

func runSurprise(args []string) error {
	fs, server := clientFlags("surprise")
	current := fs.String("current", "", "prompt to avoid")
	offline := fs.Bool("offline", false, "pick from the built-in list without a server")
	fs.Parse(args)

	var (
		p   string
		err error
	)
	if *offline {
		p, err = dalleboard.NewPromptPicker(dalleboard.DefaultPrompts, nil).Pick(*current)
	} else {
		p, err = client.New(*server, nil).RandomPrompt(context.Background(), *current)
	}
	if err != nil {
		return err
	}
	fmt.Println(p)
	return nil
}

// writePhoto decodes a bare base64 image or a data URI into path.
func writePhoto(path, photo string) error {
	if strings.HasPrefix(photo, "data:") {
		_, data, err := media.DecodeDataURI(photo)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	data, err := base64.StdEncoding.DecodeString(photo)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func dataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
