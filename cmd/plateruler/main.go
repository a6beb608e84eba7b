// Command plateruler is a terminal front-end for ruling spectral lines on
// a scanned photoplate. It loads a plate image, lets the operator probe
// the intensity profile and record line positions, and saves the result to
// a flat-text line file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"photoplate/internal/session"
	"photoplate/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to the plate image")
	linesPath := flag.String("lines", "", "Line file to load on startup")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("plateruler %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}
	if *imagePath == "" {
		fmt.Println("Usage: plateruler -image <plate> [-lines <file>]")
		os.Exit(1)
	}

	sess := session.New()
	if err := sess.SelectImage(*imagePath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load plate: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s (%d columns)\n", *imagePath, sess.Signal().Width())

	if *linesPath != "" {
		if err := sess.LoadLines(*linesPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load lines: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded %d lines from %s\n", sess.Store().Len(), *linesPath)
	}

	sess.On(session.EventLinesSaved, func(data interface{}) {
		fmt.Printf("Lines saved to %v. You may now safely exit.\n", data)
	})

	repl(sess)
}

func repl(sess *session.Session) {
	sc := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for sc.Scan() {
		words := strings.Fields(sc.Text())
		if len(words) == 0 {
			fmt.Print("> ")
			continue
		}
		if words[0] == "quit" || words[0] == "exit" {
			return
		}
		if err := run(sess, words[0], words[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Print("> ")
	}
}

func run(sess *session.Session, cmd string, args []string) error {
	switch cmd {
	case "probe":
		pos, err := floatArg(args, 0)
		if err != nil {
			return err
		}
		v, err := sess.Probe(pos)
		if err != nil {
			return err
		}
		fmt.Printf("%.4f px (%.4f mm): %.3f\n", pos, sess.PhysicalPosition(pos), v)

	case "add":
		pos, err := floatArg(args, 0)
		if err != nil {
			return err
		}
		if err := sess.AddLine(pos); err != nil {
			return err
		}
		fmt.Println("Line added.")

	case "del":
		pos, err := floatArg(args, 0)
		if err != nil {
			return err
		}
		if n := sess.DeleteLine(pos); n == 0 {
			fmt.Println("No line to delete.")
		} else {
			fmt.Printf("Deleted %d line(s).\n", n)
		}

	case "comment":
		pos, err := floatArg(args, 0)
		if err != nil {
			return err
		}
		if len(args) < 2 {
			return fmt.Errorf("usage: comment <position> <text>")
		}
		if err := sess.CommentLine(pos, args[1]); err != nil {
			return err
		}
		fmt.Println("Comment added.")

	case "list":
		list(sess)

	case "dpi":
		v, err := floatArg(args, 0)
		if err != nil {
			return err
		}
		sess.SetDPI(v)
		fmt.Println("DPI recorded.")

	case "offset":
		v, err := floatArg(args, 0)
		if err != nil {
			return err
		}
		sess.SetOffset(v)
		fmt.Println("Offset recorded.")

	case "save":
		path := sess.DefaultLinesPath()
		if len(args) > 0 {
			path = args[0]
		}
		return sess.SaveLines(path)

	case "load":
		if len(args) < 1 {
			return fmt.Errorf("usage: load <path>")
		}
		if err := sess.LoadLines(args[0]); err != nil {
			return err
		}
		fmt.Printf("Loaded %d lines.\n", sess.Store().Len())

	case "help":
		fmt.Println("Commands: probe X, add X, del X, comment X TEXT, list, dpi N, offset N, save [PATH], load PATH, quit")

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func list(sess *session.Session) {
	store := sess.Store()
	positions := store.Positions()
	sort.Float64s(positions)
	fmt.Printf(" Position (px) | Position (mm) | Intensity | Comment\n")
	for _, pos := range positions {
		intensity, _ := store.Intensity(pos)
		fmt.Printf(" %12.4f   %12.4f   %10.3f  %s\n",
			pos, sess.PhysicalPosition(pos), intensity, store.Comment(pos))
	}
	fmt.Printf("%d line(s).\n", store.Len())
}

func floatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing numeric argument")
	}
	v, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", args[i])
	}
	return v, nil
}
