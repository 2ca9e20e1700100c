// Package worker implements engine.Factory on top of an out-of-process
// synthesis worker spoken to over HTTP.
//
// The worker is either spawned per load (Config.Bin) with the model paths,
// device and precision on its command line, or reached at a fixed URL
// (Config.URL) and told to load them with POST /load.
//
// Wire protocol:
//
//	GET  /health      2xx once the model is loaded
//	POST /load        {"gpt_model_path","sovits_model_path","aux_paths","device","precision"};
//	                  2xx once the weights serve (URL mode only)
//	GET  /info        {"languages": [...], "sample_rate": 32000}
//	POST /synthesize  engine.Params as JSON; response is NDJSON, one
//	                  fragment per line:
//	                  {"sample_rate":32000,"dtype":"int16","channels":1,"pcm":"<base64 LE>"}
//	                  a line {"error":"..."} aborts the stream.
//
// Files:
//   - factory.go: Config, Factory, engine construction.
//   - process.go: spawning, readiness polling and stopping the worker.
//   - client.go: HTTP calls to a running worker.
//   - stream.go: NDJSON fragment decoding.
package worker
