// Command authflow-devserver runs the in-memory development backend over
// HTTP so a client built on the remote package has something to talk to.
//
// Captured mail (verification links, one-time codes, reset links) is printed
// to stdout as it is "sent".
//
// Run:
//
//	go run ./cmd/authflow-devserver -addr :8081 -second-factor
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/halcyonlabs/authflow/devbackend"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	secondFactor := flag.Bool("second-factor", false, "require a one-time code after password login")
	flag.Parse()

	cfg := devbackend.DefaultConfig()
	cfg.SecondFactor = *secondFactor

	backend, err := devbackend.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	go printMailbox(backend)

	log.Printf("authflow dev backend listening on %s (second factor: %v)", *addr, *secondFactor)
	log.Fatal(http.ListenAndServe(*addr, devbackend.NewHTTPHandler(backend)))
}

func printMailbox(backend *devbackend.Backend) {
	seen := 0
	for {
		time.Sleep(250 * time.Millisecond)
		mails := backend.Mailbox()
		for ; seen < len(mails); seen++ {
			mail := mails[seen]
			log.Printf("mail to %s: %s — %s", mail.To, mail.Subject, mail.Body)
		}
	}
}
