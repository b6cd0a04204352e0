// Package graph defines the scene graph for umbra.
// A scene is an immutable DAG of obstruction solids, surfaces, road
// paths, target points, transforms and groups, plus scene-scope
// attributes such as the sky radiance table and the wind rose.
package graph
