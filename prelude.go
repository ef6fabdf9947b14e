package lambdawg

// preludeSource is the fixed runtime header the emitter prepends to every
// compiled artifact (spec.md §4.4): the constructors, predicates, and
// combinators a compiled program's calls into `Ok`, `isSome`, `map`,
// `pipe`, and the rest resolve against. It is emitted verbatim, once,
// ahead of any user code, and never altered per-compilation.
//
// __NativeError is captured via a globalThis property read rather than a
// bare `Error` reference: `const Error = ...` below is block-scoped over
// this entire prelude (JS's temporal dead zone covers the whole scope,
// not just the lines after the declaration), so a bare `Error` on the
// line above it would throw ReferenceError before any user code runs.
// Property access on globalThis resolves independently of that lexical
// binding and reaches the real native constructor instead.
const preludeSource = `const __NativeError = globalThis.Error;
const Ok = (value) => ({ __tag: "Ok", value });
const Error = (value) => ({ __tag: "Error", value });
const Some = (value) => ({ __tag: "Some", value });
const None = { __tag: "None" };

const isOk = (r) => r != null && r.__tag === "Ok";
const isError = (r) => r != null && r.__tag === "Error";
const isSome = (o) => o != null && o.__tag === "Some";
const isNone = (o) => o != null && o.__tag === "None";

const unwrap = (r) => {
  if (isOk(r) || isSome(r)) return r.value;
  if (isError(r)) throw r.value;
  throw new __NativeError("unwrap: called on a None value");
};

const match = (value, cases) => {
  const handler = cases[value && value.__tag] ?? cases["_"];
  if (!handler) throw new __NativeError("match: no case for tag " + (value && value.__tag));
  return handler(value);
};

const map = (f, list) => list.map(f);
const filter = (f, list) => list.filter(f);
const fold = (f, seed, list) => list.reduce(f, seed);
const sum = (list) => list.reduce((a, b) => a + b, 0);
const length = (list) => list.length;
const head = (list) => (list.length > 0 ? Some(list[0]) : None);
const tail = (list) => (list.length > 0 ? Some(list.slice(1)) : None);
const show = (value) => JSON.stringify(value);
const identity = (value) => value;
const tap = (f, value) => {
  f(value);
  return value;
};
const pipe = (left, right) => right(left);
`
