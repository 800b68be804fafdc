// main.go -- build, dump, or verify a Constant Database (CDB)
//
// cdbutil is an example of using go-cdb's AtomicWriter and Reader. It
// constructs a CDB from a variety of input:
//   - whitespace-delimited text file: first field is key, rest of the
//     line is the value
//   - Comma Separated text file (CSV): first field is key, second field
//     is value
//
// Unlike a classic key/value store, CDB permits duplicate keys: running
// cdbutil over a file with repeated "key<TAB>value" lines demonstrates
// that every occurrence is kept and later returned in insertion order.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/opencoff/go-cdb"

	flag "github.com/opencoff/pflag"
)

func main() {
	var verify bool
	var dump bool

	usage := fmt.Sprintf("%s [options] OUTPUT [INPUT ...]", os.Args[0])

	flag.BoolVarP(&verify, "verify", "V", false, "Verify a constant DB and print its record count")
	flag.BoolVarP(&dump, "dump", "D", false, "Dump every (key, value) pair in a constant DB")
	flag.Usage = func() {
		fmt.Printf("cdbutil - build, dump, or verify a Constant Database\nUsage: %s\n", usage)
		flag.PrintDefaults()
	}

	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		die("No file name given!\nUsage: %s\n", usage)
	}

	fn := args[0]
	args = args[1:]

	switch {
	case verify:
		doVerify(fn)
	case dump:
		doDump(fn)
	default:
		doBuild(fn, args)
	}
}

func doVerify(fn string) {
	img, err := cdb.OpenFile(fn)
	if err != nil {
		die("can't open %s: %s", fn, err)
	}
	defer img.Close()

	rd, err := cdb.Open(img)
	if err != nil {
		die("%s: %s", fn, err)
	}

	var n uint64
	it := rd.Iter()
	for {
		rec, err := it.Next()
		if err != nil {
			die("%s: corrupt record at entry %d: %s", fn, n, err)
		}
		if rec == nil {
			break
		}
		n++
	}

	fmt.Printf("%s: %d records, %d bytes\n", fn, n, rd.Len())
}

func doDump(fn string) {
	img, err := cdb.OpenFile(fn)
	if err != nil {
		die("can't open %s: %s", fn, err)
	}
	defer img.Close()

	rd, err := cdb.Open(img)
	if err != nil {
		die("%s: %s", fn, err)
	}

	it := rd.Iter()
	for {
		rec, err := it.Next()
		if err != nil {
			die("%s: corrupt record: %s", fn, err)
		}
		if rec == nil {
			break
		}
		fmt.Printf("%s\t%s\n", rec.Key, rec.Value)
	}
}

func doBuild(fn string, args []string) {
	db, err := cdb.Create(fn)
	if err != nil {
		die("can't create %s: %s", fn, err)
	}

	var n uint64
	if len(args) > 0 {
		for _, f := range args {
			var cnt uint64
			var aerr error

			switch {
			case strings.HasSuffix(f, ".csv"):
				cnt, aerr = AddCSVFile(db, f, ',', '#', 0, 1)

			default:
				cnt, aerr = AddTextFile(db, f, " \t")
			}

			if aerr != nil {
				warn("can't add %s: %s", f, aerr)
				continue
			}

			n += cnt
			fmt.Printf("+ %s: %d records\n", f, cnt)
		}
	} else {
		n, err = AddTextStream(db, os.Stdin, " \t")
		if err != nil {
			db.Abort()
			die("can't add STDIN: %s", err)
		}

		fmt.Printf("+ <STDIN>: %d records\n", n)
	}

	sum, err := db.Finish()
	if err != nil {
		db.Abort()
		die("can't write db %s: %s", fn, err)
	}

	fmt.Printf("%s: %d records, %d bytes, sha512-256 %x\n", fn, sum.Records, sum.Bytes, sum.SHA512_256)
}

func die(f string, v ...interface{}) {
	warn(f, v...)
	os.Exit(1)
}

func warn(f string, v ...interface{}) {
	z := fmt.Sprintf("%s: %s", os.Args[0], f)
	s := fmt.Sprintf(z, v...)
	if n := len(s); s[n-1] != '\n' {
		s += "\n"
	}

	os.Stderr.WriteString(s)
	os.Stderr.Sync()
}

// vim: ft=go:sw=4:ts=4:noexpandtab:tw=78:
