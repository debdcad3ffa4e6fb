// Package model defines the job types shared by the scheduler, the status
// API and its clients.
//
// # Job
//
// Job is one requested download. It moves through three states:
//
//	pending -> running -> finished
//
// A pending job owns no backend. The scheduler attaches a backend when it
// admits the job and records the outcome when the backend reports that it
// has finished:
//
//	job := model.NewJob("http://example.com/file.iso", "/home/me/Downloads")
//	job.Start(b, time.Now())
//	...
//	job.Finish(time.Now())
//	fmt.Println(job.Succeeded, job.Error)
//
// # Snapshots
//
// JobInfo and Snapshot are plain copies of job state safe to hand to other
// goroutines and to encode as JSON.
package model
