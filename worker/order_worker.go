package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"pem-store-api/queue"
	"pem-store-api/services/email"
)

// Worker drains the job queue and sends the order emails.
type Worker struct {
	queue        *queue.Queue
	emailService email.EmailSender
	shutdown     chan struct{}
	isRunning    bool
}

func NewWorker(q *queue.Queue, es email.EmailSender) *Worker {
	return &Worker{
		queue:        q,
		emailService: es,
		shutdown:     make(chan struct{}),
	}
}

// Start begins processing jobs with the given number of goroutines. A side
// loop feeds due delayed jobs back into the main queue.
func (w *Worker) Start(concurrency int) {
	w.isRunning = true

	for i := 0; i < concurrency; i++ {
		go w.processJobs(i)
	}
	go w.pumpDelayedJobs()

	log.Printf("Started %d worker goroutines", concurrency)
}

func (w *Worker) Stop() {
	if !w.isRunning {
		return
	}

	log.Println("Stopping worker...")
	close(w.shutdown)
	w.isRunning = false
}

func (w *Worker) processJobs(workerID int) {
	log.Printf("Worker %d starting", workerID)

	for {
		select {
		case <-w.shutdown:
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			job, err := w.queue.Dequeue(ctx, 5*time.Second)
			cancel()

			if err != nil {
				log.Printf("Worker %d: Error dequeuing job: %v", workerID, err)
				time.Sleep(time.Second)
				continue
			}

			if job == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			log.Printf("Worker %d processing job %s of type %s", workerID, job.ID, job.Type)

			jobErr := w.processJob(job)
			if jobErr != nil {
				log.Printf("Worker %d: Error processing job %s: %v", workerID, job.ID, jobErr)

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				failErr := w.queue.FailJob(ctx, job, jobErr)
				cancel()

				if failErr != nil {
					log.Printf("Worker %d: Error marking job %s as failed: %v", workerID, job.ID, failErr)
				}

				time.Sleep(time.Second)
				continue
			}

			ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
			completeErr := w.queue.CompleteJob(ctx, job)
			cancel()

			if completeErr != nil {
				log.Printf("Worker %d: Error marking job %s as complete: %v", workerID, job.ID, completeErr)
			}
		}
	}
}

func (w *Worker) pumpDelayedJobs() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error processing delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

func (w *Worker) processJob(job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeOrderConfirmation:
		return w.processOrderConfirmation(job)
	case queue.JobTypeOrderStatusEmail:
		return w.processOrderStatusEmail(job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *Worker) processOrderConfirmation(job *queue.Job) error {
	to, _ := job.Data["email"].(string)
	name, _ := job.Data["nombre"].(string)
	orderNumber, _ := job.Data["numero_pedido"].(string)
	total, _ := job.Data["total"].(string)

	if to == "" || orderNumber == "" {
		return fmt.Errorf("order confirmation job %s missing email or order number", job.ID)
	}

	if err := w.emailService.SendOrderConfirmationEmail(to, name, orderNumber, total); err != nil {
		return fmt.Errorf("failed to send confirmation for order %s: %v", orderNumber, err)
	}

	log.Printf("Sent confirmation email for order %s to %s", orderNumber, to)
	return nil
}

func (w *Worker) processOrderStatusEmail(job *queue.Job) error {
	to, _ := job.Data["email"].(string)
	name, _ := job.Data["nombre"].(string)
	orderNumber, _ := job.Data["numero_pedido"].(string)
	status, _ := job.Data["estado"].(string)

	if to == "" || orderNumber == "" || status == "" {
		return fmt.Errorf("status email job %s missing fields", job.ID)
	}

	if err := w.emailService.SendOrderStatusEmail(to, name, orderNumber, status); err != nil {
		return fmt.Errorf("failed to send status email for order %s: %v", orderNumber, err)
	}

	log.Printf("Sent status email (%s) for order %s to %s", status, orderNumber, to)
	return nil
}
