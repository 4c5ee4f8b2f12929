package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/smtp"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/careconnect/scheduling/internal/config"
	"github.com/careconnect/scheduling/internal/notify"
)

// mail-worker drains the confirmation queue published by the booking
// service and delivers the emails. It is the only process that talks
// SMTP; the api-server never waits on mail delivery.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("mail-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatal("AMQP_URL is required for the mail worker")
	}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatalf("amqp connection error: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel error: %v", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.NotifyQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("declare queue %s: %v", cfg.NotifyQueue, err)
	}

	msgs, err := ch.Consume(cfg.NotifyQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("register consumer: %v", err)
	}

	log.Printf("consuming confirmations from %s", cfg.NotifyQueue)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-stopCh:
			log.Println("mail-worker shutting down")
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Println("consumer channel closed")
				return
			}
			if err := handleMessage(cfg, msg.Body); err != nil {
				log.Printf("delivery failed, dropping message: %v", err)
			}
			// Failed deliveries are acked and dropped, not requeued:
			// confirmations are best-effort and a poison message must
			// not wedge the queue.
			if err := msg.Ack(false); err != nil {
				log.Printf("ack failed: %v", err)
			}
		}
	}
}

func handleMessage(cfg config.Config, body []byte) error {
	var c notify.Confirmation
	if err := json.Unmarshal(body, &c); err != nil {
		return fmt.Errorf("decode confirmation: %w", err)
	}
	if c.Recipient == "" {
		log.Printf("reservation %s has no recipient, skipping", c.ReservationID)
		return nil
	}

	if cfg.SMTPAddr == "" {
		log.Printf("SMTP not configured, would send confirmation for reservation %s to %s", c.ReservationID, c.Recipient)
		return nil
	}

	msg := buildEmail(cfg.SMTPFrom, c)
	if err := smtp.SendMail(cfg.SMTPAddr, nil, cfg.SMTPFrom, []string{c.Recipient}, msg); err != nil {
		return fmt.Errorf("send mail for reservation %s: %w", c.ReservationID, err)
	}

	log.Printf("confirmation for reservation %s sent to %s", c.ReservationID, c.Recipient)
	return nil
}

func buildEmail(from string, c notify.Confirmation) []byte {
	subject := fmt.Sprintf("Appointment confirmed with %s", c.DoctorName)
	body := fmt.Sprintf(
		"Dear %s,\r\n\r\nYour appointment with %s is confirmed.\r\n\r\nWhen: %s - %s\r\nReference: %s\r\n",
		c.PatientName,
		c.DoctorName,
		c.StartsAt.Format("Mon, 02 Jan 2006 03:04 PM MST"),
		c.EndsAt.Format("03:04 PM MST"),
		c.ReservationID,
	)

	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		from, c.Recipient, subject, body,
	))
}
