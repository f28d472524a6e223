package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	pkgcfg "github.com/Skotchmaster/sweet_shop/pkg/config"
	"github.com/Skotchmaster/sweet_shop/pkg/logging"
	"github.com/Skotchmaster/sweet_shop/pkg/sweetclient"
)

const usage = `usage: sweetctl <command> [flags]

commands:
  register -name N -email E -password P
  login    -email E -password P
  logout
  whoami
  list     [-q TERM] [-category C]
  purchase -id ID [-qty N]
  add      -name N -price P [-description D] [-qty N] [-category C] [-image URL] [-origin O]   (admin)
  edit     -id ID [-name N] [-price P] [-description D] [-qty N] [-category C] [-image URL] [-origin O]   (admin)
  delete   -id ID   (admin)
  stats    (admin)
`

var errAdminOnly = errors.New("this command needs an admin session")

func main() {
	pkgcfg.LoadDotEnv(".env")

	logger := logging.New(pkgcfg.EnvDefault("LOG_LEVEL", "warn"))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	app := newApp(os.Stdout)
	if _, err := app.client.Session().Load(); err != nil {
		logger.Warn("session_load_error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, sweetclient.ErrUnauthorized) {
			fmt.Fprintln(os.Stderr, "session expired, please login again")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

type app struct {
	out     io.Writer
	client  *sweetclient.Client
	catalog *sweetclient.Catalog
}

func newApp(out io.Writer) *app {
	client := sweetclient.New(
		pkgcfg.EnvDefault("SWEETSHOP_API_URL", "http://localhost:8080/api"),
		sweetclient.NewSessionStore(pkgcfg.EnvDefault("SWEETSHOP_SESSION_FILE", defaultSessionFile())),
	)
	return &app{out: out, client: client, catalog: sweetclient.NewCatalog(client)}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".sweetshop-session.json"
	}
	return filepath.Join(dir, "sweetshop", "session.json")
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	switch cmd {
	case "register":
		name := fs.String("name", "", "display name")
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.client.Register(ctx, *name, *email, *password); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Registration successful. Please login.")
		return nil

	case "login":
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		sess, err := a.client.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Welcome, %s (%s)\n", sess.Username, sess.Role)
		return nil

	case "logout":
		if err := a.client.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Logged out")
		return nil

	case "whoami":
		sess := a.client.Session().Current()
		if sess == nil {
			fmt.Fprintln(a.out, "not logged in")
			return nil
		}
		fmt.Fprintf(a.out, "%s (%s)\n", sess.Username, sess.Role)
		return nil

	case "list":
		q := fs.String("q", "", "search term")
		category := fs.String("category", sweetclient.CategoryAll, "one of "+strings.Join(sweetclient.Categories, ", "))
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.catalog.Refresh(ctx); err != nil {
			return err
		}
		a.printSweets(sweetclient.Filter(a.catalog.Snapshot().Sweets, *q, *category), *q != "" || *category != sweetclient.CategoryAll)
		return nil

	case "purchase":
		id := fs.Int64("id", 0, "sweet id")
		qty := fs.Int("qty", 1, "quantity")
		if err := fs.Parse(args); err != nil {
			return err
		}
		res, err := a.catalog.Purchase(ctx, *id, *qty)
		if res != nil {
			total := res.TotalAmount
			fmt.Fprintf(a.out, "Purchased %d x %s for %s\n", res.Quantity, res.SweetName, sweetclient.FormatPrice(&total))
		}
		return err

	case "add":
		if err := a.requireAdmin(); err != nil {
			return err
		}
		in := sweetclient.SweetInput{}
		name := fs.String("name", "", "name")
		price := fs.String("price", "", "price")
		desc := fs.String("description", "", "description")
		qty := fs.String("qty", "", "stock quantity")
		fs.StringVar(&in.Category, "category", "", "category")
		fs.StringVar(&in.Image, "image", "", "image url")
		fs.StringVar(&in.Origin, "origin", "", "origin")
		if err := fs.Parse(args); err != nil {
			return err
		}
		in.Name = *name
		in.Description = desc
		var err error
		if in.Price, err = optFloat(*price); err != nil {
			return err
		}
		if in.Quantity, err = optInt(*qty); err != nil {
			return err
		}
		s, err := a.catalog.Add(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added #%d %s\n", s.ID, s.Name)
		return nil

	case "edit":
		if err := a.requireAdmin(); err != nil {
			return err
		}
		id := fs.Int64("id", 0, "sweet id")
		patch, err := parsePatch(fs, args)
		if err != nil {
			return err
		}
		if err := a.catalog.Refresh(ctx); err != nil {
			return err
		}
		s, err := a.catalog.Update(ctx, *id, patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated #%d %s\n", s.ID, s.Name)
		return nil

	case "delete":
		if err := a.requireAdmin(); err != nil {
			return err
		}
		id := fs.Int64("id", 0, "sweet id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := a.catalog.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted #%d\n", *id)
		return nil

	case "stats":
		if err := a.requireAdmin(); err != nil {
			return err
		}
		if err := a.catalog.Refresh(ctx); err != nil {
			return err
		}
		st := sweetclient.AdminStats(a.catalog.Snapshot().Sweets)
		fmt.Fprintf(a.out, "Total Products: %d\nTotal Stock:    %d\nInventory Value: %s\nOut of Stock:   %d\n",
			st.TotalProducts, st.TotalStock, sweetclient.FormatPrice(&st.TotalValue), st.OutOfStock)
		return nil

	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func (a *app) requireAdmin() error {
	if !a.client.Session().Current().IsAdmin() {
		return errAdminOnly
	}
	return nil
}

// parsePatch only sets the fields that were passed on the command line.
func parsePatch(fs *flag.FlagSet, args []string) (sweetclient.SweetPatch, error) {
	var p sweetclient.SweetPatch
	name := fs.String("name", "", "name")
	price := fs.String("price", "", "price")
	desc := fs.String("description", "", "description")
	qty := fs.String("qty", "", "stock quantity")
	category := fs.String("category", "", "category")
	image := fs.String("image", "", "image url")
	origin := fs.String("origin", "", "origin")
	if err := fs.Parse(args); err != nil {
		return p, err
	}

	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "name":
			p.Name = name
		case "description":
			p.Description = desc
		case "category":
			p.Category = category
		case "image":
			p.Image = image
		case "origin":
			p.Origin = origin
		case "price":
			if p.Price, err = optFloat(*price); err == nil && p.Price == nil {
				err = errors.New("Price must be a valid number")
			}
		case "qty":
			p.Quantity, err = optInt(*qty)
		}
	})
	return p, err
}

func (a *app) printSweets(sweets []sweetclient.Sweet, filtered bool) {
	if len(sweets) == 0 {
		fmt.Fprintln(a.out, "No sweets found")
		if filtered {
			fmt.Fprintln(a.out, "Try adjusting your search or filter criteria")
		} else {
			fmt.Fprintln(a.out, "No sweets available at the moment")
		}
		return
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK\tORIGIN")
	for _, s := range sweets {
		p := s.Price
		badge, ok := sweetclient.StockBadge(s)
		if !ok {
			badge = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Category, sweetclient.FormatPrice(&p), badge, s.Origin)
	}
	_ = tw.Flush()
}

func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("Price must be a valid number")
	}
	return &v, nil
}

func optInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("quantity %q is not a non-negative integer", s)
	}
	return &v, nil
}
