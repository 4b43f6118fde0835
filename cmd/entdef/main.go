package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/entdef/entdef"
	"github.com/entdef/entdef/database"
	"github.com/entdef/entdef/database/mssql"
	"github.com/entdef/entdef/database/postgres"
	"github.com/entdef/entdef/diff"
	"github.com/entdef/entdef/entity"
	"github.com/entdef/entdef/util"
)

var version string

// Return parsed options and database config
func parseOptions(args []string) (database.Dialect, database.Config, *entdef.Options, string, bool) {
	var opts struct {
		User           string   `short:"U" long:"user" description:"Database user name" value-name:"user_name" default:"postgres"`
		Password       string   `short:"W" long:"password" description:"Database user password, overridden by $PGPASSWORD or $MSSQL_PWD" value-name:"password"`
		Host           string   `short:"h" long:"host" description:"Host or socket directory to connect to the server" value-name:"host_name" default:"127.0.0.1"`
		Port           uint     `short:"p" long:"port" description:"Port used for the connection" value-name:"port_num" default:"5432"`
		Prompt         bool     `long:"password-prompt" description:"Force database user password prompt"`
		File           string   `short:"f" long:"file" description:"Read the entity manifest from the file, rather than stdin" value-name:"manifest_file" default:"-"`
		Mssql          bool     `long:"mssql" description:"Connect to a SQL Server instead of PostgreSQL"`
		DryRun         bool     `long:"dry-run" description:"Don't run statements but just show them"`
		SkipDrop       bool     `long:"skip-drop" description:"Skip destructive changes such as DROP"`
		Schema         []string `long:"schema" description:"Schema to scan for undeclared entities (default: schemas of declared entities)" value-name:"schema"`
		ExcludeSchema  []string `long:"exclude-schema" description:"Schema to exclude from the scan" value-name:"schema"`
		Kind           []string `long:"kind" description:"Limit undeclared-entity detection to this kind (repeatable)" value-name:"kind"`
		BeforeApply    string   `long:"before-apply" description:"Execute the given string before applying the plan"`
		Debug          bool     `long:"debug" description:"Dump the computed plan structures"`
		Help           bool     `long:"help" description:"Show this help"`
		Version        bool     `long:"version" description:"Show this version"`
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] db_name"
	args, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if len(args) == 0 {
		fmt.Print("No database is specified!\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	} else if len(args) > 1 {
		fmt.Printf("Multiple databases are given: %v\n\n", args)
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	dialect := database.DialectPostgres
	passwordEnv := "PGPASSWORD"
	if opts.Mssql {
		dialect = database.DialectMSSQL
		passwordEnv = "MSSQL_PWD"
	}

	password, ok := os.LookupEnv(passwordEnv)
	if !ok {
		password = opts.Password
	}
	if opts.Prompt {
		fmt.Printf("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		password = string(pass)
	}

	config := database.Config{
		DbName:   args[0],
		User:     opts.User,
		Password: password,
		Host:     opts.Host,
		Port:     int(opts.Port),
	}
	if strings.HasPrefix(opts.Host, "/") {
		config.Socket = opts.Host
		config.Host = ""
	}

	options := entdef.Options{
		DryRun:      opts.DryRun,
		SkipDrop:    opts.SkipDrop,
		BeforeApply: opts.BeforeApply,
		Config: diff.Config{
			Schemas:        opts.Schema,
			ExcludeSchemas: opts.ExcludeSchema,
			Kinds: util.TransformSlice(opts.Kind, func(k string) entity.Kind {
				return entity.Kind(strings.ToLower(k))
			}),
		},
	}
	return dialect, config, &options, opts.File, opts.Debug
}

func main() {
	util.InitLogger()
	dialect, config, options, manifestFile, debug := parseOptions(os.Args[1:])

	declared, err := entdef.LoadManifest(manifestFile)
	if err != nil {
		log.Fatalf("Failed to read '%s': %s", manifestFile, err)
	}

	var db database.Database
	if dialect == database.DialectMSSQL {
		db, err = mssql.NewDatabase(config)
	} else {
		db, err = postgres.NewDatabase(config)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if debug {
		ops, err := entdef.Reconcile(db, declared, options.Config)
		if err != nil {
			log.Fatal(err)
		}
		pp.Println(ops)
		return
	}

	entdef.Run(db, declared, options)
}
