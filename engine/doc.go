// Package engine runs multi-round jury debates.
//
// A run walks a fixed state machine. Every phase emits a phase event
// followed by its results:
//
//	baseline     two direct answers from the selected and the alternate model
//	positions    three jurors state their opening positions
//	             (coordination decides which rounds are worth running)
//	critique     each juror critiques the other two
//	rebuttal     only on deep deliberation: jurors answer their critics
//	revision     jurors revise their positions
//	verdict      the chief justice synthesizes the final verdict
//	             (evaluation scores baseline against verdict, best effort)
//
// A stream ends with exactly one complete or error event, unless the run
// was cancelled, in which case the channel is closed without a terminal
// event.
//
// # Usage
//
//	registry := model.NewRegistry()
//	registry.Register("gpt-", openai.Factory(client))
//
//	e := engine.New(agent.NewFactory(registry),
//	    func(o *engine.Options) { o.Logger = logger },
//	)
//
//	_, events, err := e.Run(ctx, engine.Request{
//	    Query:  "Should we refinance at 6.1%?",
//	    Domain: core.DomainFinance,
//	    Model:  "gpt-5.2",
//	})
//	if err != nil {
//	    return err
//	}
//	for ev := range events {
//	    fmt.Println(ev.Type())
//	}
//
// # Concurrency
//
// Workers of a phase run concurrently and the first failure cancels the
// remainder. Every run owns a worker call budget, and the engine bounds
// the number of runs executing at once. Lifecycle hooks are registered
// on a CallbackManager.
package engine
