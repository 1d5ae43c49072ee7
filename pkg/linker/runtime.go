package linker

// runtime is the loader that opens every bundle. It is an immediately
// invoked function over the module table; the table and entry identity are
// appended by Generate. Each table record gains a "module" slot the first
// time it is required, so a module body runs once per program and every
// importer sees the same exports object. The slot is filled before the body
// runs, so circular requires observe partially populated exports.
const runtime = `(function(graph) {
  var has = Object.prototype.hasOwnProperty;

  function require(id) {
    if (!has.call(graph, id)) {
      throw new Error("module not found: " + id);
    }
    var record = graph[id];
    if (record.module) {
      return record.module.exports;
    }
    var module = record.module = { id: id, exports: {} };

    function localRequire(specifier) {
      if (!has.call(record.dependencies, specifier)) {
        throw new Error("cannot find module '" + specifier + "' from " + id);
      }
      return require(record.dependencies[specifier]);
    }

    var body = new Function("require", "module", "exports", record.code);
    body.call(module.exports, localRequire, module, module.exports);
    return module.exports;
  }

  return require(`

const footer = ");\n})("
